package services

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/salesjourney/backend/internal/events"
	"github.com/salesjourney/backend/internal/models"
	"github.com/salesjourney/backend/internal/repositories"
)

// Each feed source is capped to the 20 freshest entries before merging.
const feedPageLimit = 20

type FeedService struct {
	feedRepo  *repositories.FeedRepository
	userRepo  *repositories.UserRepository
	publisher events.Publisher
}

func NewFeedService(feedRepo *repositories.FeedRepository, userRepo *repositories.UserRepository, publisher events.Publisher) *FeedService {
	return &FeedService{
		feedRepo:  feedRepo,
		userRepo:  userRepo,
		publisher: publisher,
	}
}

// FeedItem is one entry of the merged feed. Kind is "post" or "event".
type FeedItem struct {
	Kind      string            `json:"kind"`
	CreatedAt time.Time         `json:"created_at"`
	Post      *PostView         `json:"post,omitempty"`
	Event     *models.FeedEvent `json:"event,omitempty"`
}

type PostView struct {
	ID            uuid.UUID `json:"id"`
	AuthorID      uuid.UUID `json:"author_id"`
	AuthorName    string    `json:"author_name"`
	Content       string    `json:"content"`
	ImageURL      *string   `json:"image_url,omitempty"`
	HasImage      bool      `json:"has_image"`
	LikesCount    int       `json:"likes_count"`
	CommentsCount int       `json:"comments_count"`
	IsLiked       bool      `json:"is_liked"`
	CreatedAt     time.Time `json:"created_at"`
}

// GetFeed merges owner posts and system events newest first.
func (s *FeedService) GetFeed(ctx context.Context, companyID, viewerID uuid.UUID) ([]FeedItem, error) {
	posts, err := s.feedRepo.ListPosts(ctx, companyID, viewerID, feedPageLimit)
	if err != nil {
		return nil, err
	}
	systemEvents, err := s.feedRepo.ListEvents(ctx, companyID, feedPageLimit)
	if err != nil {
		return nil, err
	}

	items := make([]FeedItem, 0, len(posts)+len(systemEvents))
	for _, row := range posts {
		view := &PostView{
			ID:            row.Post.ID,
			AuthorID:      row.Post.AuthorID,
			AuthorName:    row.AuthorName,
			Content:       row.Post.Content,
			ImageURL:      row.Post.ImageURL,
			HasImage:      row.Post.ImageMimetype != nil,
			LikesCount:    row.LikesCount,
			CommentsCount: row.CommentsCount,
			IsLiked:       row.IsLiked,
			CreatedAt:     row.Post.CreatedAt,
		}
		items = append(items, FeedItem{Kind: "post", CreatedAt: view.CreatedAt, Post: view})
	}
	for i := range systemEvents {
		event := systemEvents[i]
		items = append(items, FeedItem{Kind: "event", CreatedAt: event.CreatedAt, Event: &event})
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return items, nil
}

// CreatePost publishes an owner announcement, optionally with an inline image.
func (s *FeedService) CreatePost(ctx context.Context, author *models.User, content string, imageData []byte, imageMimetype string) (*models.Post, error) {
	if author.CompanyID == nil {
		return nil, errors.New("user has no company")
	}
	if content == "" && len(imageData) == 0 {
		return nil, errors.New("post is empty")
	}
	if len(imageData) > 0 && !allowedAvatarTypes[imageMimetype] {
		return nil, errors.New("unsupported image type")
	}

	post := &models.Post{
		CompanyID: *author.CompanyID,
		AuthorID:  author.ID,
		Content:   content,
	}
	if len(imageData) > 0 {
		post.ImageData = imageData
		post.ImageMimetype = &imageMimetype
	}
	if err := s.feedRepo.CreatePost(ctx, post); err != nil {
		return nil, err
	}

	s.publisher.Publish(ctx, events.TopicFeed, events.Message{
		Type:      "NEW_POST",
		CompanyID: post.CompanyID.String(),
		UserID:    author.ID.String(),
		Payload:   map[string]any{"post_id": post.ID.String()},
	})
	return post, nil
}

func (s *FeedService) GetPostImage(ctx context.Context, postID uuid.UUID) ([]byte, string, error) {
	return s.feedRepo.GetPostImage(ctx, postID)
}

// ToggleLike flips the viewer's like. The post must belong to the viewer's
// company.
func (s *FeedService) ToggleLike(ctx context.Context, viewer *models.User, postID uuid.UUID) (bool, int, error) {
	post, err := s.feedRepo.GetPost(ctx, postID)
	if err != nil {
		return false, 0, err
	}
	if post == nil || viewer.CompanyID == nil || post.CompanyID != *viewer.CompanyID {
		return false, 0, errors.New("post not found")
	}
	return s.feedRepo.ToggleLike(ctx, postID, viewer.ID)
}

func (s *FeedService) AddComment(ctx context.Context, viewer *models.User, postID uuid.UUID, text string) (*models.Comment, error) {
	if text == "" {
		return nil, errors.New("comment is empty")
	}
	post, err := s.feedRepo.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil || viewer.CompanyID == nil || post.CompanyID != *viewer.CompanyID {
		return nil, errors.New("post not found")
	}

	comment := &models.Comment{
		PostID: postID,
		UserID: viewer.ID,
		Text:   text,
	}
	if err := s.feedRepo.CreateComment(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

func (s *FeedService) ListComments(ctx context.Context, viewer *models.User, postID uuid.UUID) ([]repositories.CommentRow, error) {
	post, err := s.feedRepo.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil || viewer.CompanyID == nil || post.CompanyID != *viewer.CompanyID {
		return nil, errors.New("post not found")
	}
	return s.feedRepo.ListComments(ctx, postID)
}
