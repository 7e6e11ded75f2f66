package services

import (
	"errors"

	"github.com/samvad/campus/backend/internal/authz"
	"github.com/samvad/campus/backend/internal/models"
	"github.com/samvad/campus/backend/pkg/response"
	"gorm.io/gorm"
)

// ForumService handles discussion posts, replies and likes. All rows are
// database records; nothing lives in process memory, so threads survive a
// restart. Authors may edit or remove their own content; admins may moderate
// anything.
type ForumService struct {
	db *gorm.DB
}

func NewForumService(db *gorm.DB) *ForumService {
	return &ForumService{db: db}
}

type CreatePostRequest struct {
	Title    string `json:"title" binding:"required,max=300"`
	Content  string `json:"content" binding:"required"`
	Category string `json:"category" binding:"omitempty,oneof=general question announcement discussion"`
	ClubID   *uint  `json:"club_id"`
	EventID  *uint  `json:"event_id"`
}

type UpdatePostRequest struct {
	Title   *string `json:"title" binding:"omitempty,max=300"`
	Content *string `json:"content"`
}

type CreateReplyRequest struct {
	Content  string `json:"content" binding:"required"`
	ParentID *uint  `json:"parent_id"`
}

// PostView augments a post with counts and the caller's like state.
type PostView struct {
	models.ForumPost
	ReplyCount int64 `json:"reply_count"`
	LikeCount  int64 `json:"like_count"`
	Liked      bool  `json:"liked"`
}

// ReplyView augments a reply with its like state.
type ReplyView struct {
	models.ForumReply
	LikeCount int64 `json:"like_count"`
	Liked     bool  `json:"liked"`
}

// ListPosts returns posts newest first, optionally filtered by category or
// club scope.
func (s *ForumService) ListPosts(category string, clubID uint, callerID uint) ([]PostView, error) {
	query := s.db.Preload("Author").Order("created_at DESC")
	if category != "" {
		query = query.Where("category = ?", category)
	}
	if clubID != 0 {
		query = query.Where("club_id = ?", clubID)
	}

	var posts []models.ForumPost
	if err := query.Find(&posts).Error; err != nil {
		return nil, err
	}

	views := make([]PostView, 0, len(posts))
	for _, p := range posts {
		views = append(views, s.buildPostView(p, callerID))
	}
	return views, nil
}

// GetPost returns one post with its reply tree.
func (s *ForumService) GetPost(postID, callerID uint) (*PostView, []ReplyView, error) {
	post, err := s.requirePost(postID)
	if err != nil {
		return nil, nil, err
	}
	s.db.Preload("Author").First(post, postID)

	var replies []models.ForumReply
	if err := s.db.Preload("Author").
		Where("post_id = ?", postID).
		Order("created_at ASC").
		Find(&replies).Error; err != nil {
		return nil, nil, err
	}

	replyViews := make([]ReplyView, 0, len(replies))
	for _, r := range replies {
		view := ReplyView{ForumReply: r}
		s.db.Model(&models.ReplyLike{}).Where("reply_id = ?", r.ID).Count(&view.LikeCount)
		if callerID != 0 {
			var mine int64
			s.db.Model(&models.ReplyLike{}).
				Where("reply_id = ? AND user_id = ?", r.ID, callerID).Count(&mine)
			view.Liked = mine > 0
		}
		replyViews = append(replyViews, view)
	}

	postView := s.buildPostView(*post, callerID)
	return &postView, replyViews, nil
}

// CreatePost starts a new thread authored by the caller.
func (s *ForumService) CreatePost(caller *models.User, req *CreatePostRequest) (*models.ForumPost, error) {
	post := models.ForumPost{
		Title:    req.Title,
		Content:  req.Content,
		AuthorID: caller.ID,
		ClubID:   req.ClubID,
		EventID:  req.EventID,
		Category: req.Category,
	}
	if post.Category == "" {
		post.Category = "general"
	}

	if err := s.db.Create(&post).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

// UpdatePost edits a thread. Author only.
func (s *ForumService) UpdatePost(caller *models.User, postID uint, req *UpdatePostRequest) (*models.ForumPost, error) {
	post, err := s.requirePost(postID)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != caller.ID {
		return nil, response.NewForbidden("you can only edit your own posts")
	}

	if req.Title != nil {
		post.Title = *req.Title
	}
	if req.Content != nil {
		post.Content = *req.Content
	}

	if err := s.db.Save(post).Error; err != nil {
		return nil, err
	}
	return post, nil
}

// DeletePost removes a thread with its replies and likes. Author or any
// admin.
func (s *ForumService) DeletePost(caller *models.User, postID uint) error {
	post, err := s.requirePost(postID)
	if err != nil {
		return err
	}
	if post.AuthorID != caller.ID && authz.Level(caller.Role) < authz.Level(models.RoleClubAdmin) {
		return response.NewForbidden("you can only delete your own posts")
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		var replyIDs []uint
		if err := tx.Model(&models.ForumReply{}).
			Where("post_id = ?", postID).Pluck("id", &replyIDs).Error; err != nil {
			return err
		}
		if len(replyIDs) > 0 {
			if err := tx.Where("reply_id IN ?", replyIDs).Delete(&models.ReplyLike{}).Error; err != nil {
				return err
			}
			if err := tx.Where("post_id = ?", postID).Delete(&models.ForumReply{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("post_id = ?", postID).Delete(&models.PostLike{}).Error; err != nil {
			return err
		}
		return tx.Delete(post).Error
	})
}

// CreateReply answers a post. ParentID, when set, must name a reply on the
// same post.
func (s *ForumService) CreateReply(caller *models.User, postID uint, req *CreateReplyRequest) (*models.ForumReply, error) {
	if _, err := s.requirePost(postID); err != nil {
		return nil, err
	}

	if req.ParentID != nil {
		var parent models.ForumReply
		if err := s.db.First(&parent, *req.ParentID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, response.NewNotFound("parent reply not found")
			}
			return nil, err
		}
		if parent.PostID != postID {
			return nil, response.NewBadRequest("parent reply belongs to a different post")
		}
	}

	reply := models.ForumReply{
		Content:  req.Content,
		AuthorID: caller.ID,
		PostID:   postID,
		ParentID: req.ParentID,
	}
	if err := s.db.Create(&reply).Error; err != nil {
		return nil, err
	}
	return &reply, nil
}

// DeleteReply removes one reply and its likes. Author or any admin.
func (s *ForumService) DeleteReply(caller *models.User, replyID uint) error {
	var reply models.ForumReply
	if err := s.db.First(&reply, replyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NewNotFound("reply not found")
		}
		return err
	}
	if reply.AuthorID != caller.ID && authz.Level(caller.Role) < authz.Level(models.RoleClubAdmin) {
		return response.NewForbidden("you can only delete your own replies")
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("reply_id = ?", replyID).Delete(&models.ReplyLike{}).Error; err != nil {
			return err
		}
		return tx.Delete(&reply).Error
	})
}

// LikePost toggles the caller's like on a post and returns the new state.
func (s *ForumService) LikePost(caller *models.User, postID uint) (liked bool, err error) {
	if _, err := s.requirePost(postID); err != nil {
		return false, err
	}

	result := s.db.Where("user_id = ? AND post_id = ?", caller.ID, postID).
		Delete(&models.PostLike{})
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected > 0 {
		return false, nil
	}
	return true, s.db.Create(&models.PostLike{UserID: caller.ID, PostID: postID}).Error
}

// LikeReply toggles the caller's like on a reply and returns the new state.
func (s *ForumService) LikeReply(caller *models.User, replyID uint) (liked bool, err error) {
	var reply models.ForumReply
	if err := s.db.First(&reply, replyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, response.NewNotFound("reply not found")
		}
		return false, err
	}

	result := s.db.Where("user_id = ? AND reply_id = ?", caller.ID, replyID).
		Delete(&models.ReplyLike{})
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected > 0 {
		return false, nil
	}
	return true, s.db.Create(&models.ReplyLike{UserID: caller.ID, ReplyID: replyID}).Error
}

func (s *ForumService) buildPostView(post models.ForumPost, callerID uint) PostView {
	view := PostView{ForumPost: post}
	s.db.Model(&models.ForumReply{}).Where("post_id = ?", post.ID).Count(&view.ReplyCount)
	s.db.Model(&models.PostLike{}).Where("post_id = ?", post.ID).Count(&view.LikeCount)
	if callerID != 0 {
		var mine int64
		s.db.Model(&models.PostLike{}).
			Where("post_id = ? AND user_id = ?", post.ID, callerID).Count(&mine)
		view.Liked = mine > 0
	}
	return view
}

func (s *ForumService) requirePost(postID uint) (*models.ForumPost, error) {
	var post models.ForumPost
	if err := s.db.First(&post, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("post not found")
		}
		return nil, err
	}
	return &post, nil
}
