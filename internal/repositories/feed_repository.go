package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/salesjourney/backend/internal/models"
)

type FeedRepository struct {
	pool *pgxpool.Pool
}

func NewFeedRepository(pool *pgxpool.Pool) *FeedRepository {
	return &FeedRepository{pool: pool}
}

func (r *FeedRepository) CreatePost(ctx context.Context, post *models.Post) error {
	post.Prepare()
	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO posts (id, company_id, author_id, content, image_url, image_data, image_mimetype, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.pool.Exec(ctx, query,
		post.ID,
		post.CompanyID,
		post.AuthorID,
		post.Content,
		post.ImageURL,
		post.ImageData,
		post.ImageMimetype,
		post.CreatedAt,
	)
	return err
}

// PostRow is a post joined with its author and like counters, ready for
// the feed response.
type PostRow struct {
	Post          models.Post
	AuthorName    string
	LikesCount    int
	CommentsCount int
	IsLiked       bool
}

// ListPosts returns the company's newest posts, with counters and whether
// the viewing user liked each one. Image bytes stay out of the listing and
// are served by a separate endpoint.
func (r *FeedRepository) ListPosts(ctx context.Context, companyID, viewerID uuid.UUID, limit int) ([]PostRow, error) {
	query := `
		SELECT p.id, p.company_id, p.author_id, p.content, p.image_url, p.image_mimetype, p.created_at,
		       COALESCE(u.username, u.email),
		       (SELECT COUNT(*) FROM likes l WHERE l.post_id = p.id),
		       (SELECT COUNT(*) FROM comments c WHERE c.post_id = p.id),
		       EXISTS (SELECT 1 FROM likes l WHERE l.post_id = p.id AND l.user_id = $2)
		FROM posts p
		JOIN users u ON u.id = p.author_id
		WHERE p.company_id = $1
		ORDER BY p.created_at DESC
		LIMIT $3
	`

	rows, err := r.pool.Query(ctx, query, companyID, viewerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []PostRow
	for rows.Next() {
		var row PostRow
		err := rows.Scan(
			&row.Post.ID,
			&row.Post.CompanyID,
			&row.Post.AuthorID,
			&row.Post.Content,
			&row.Post.ImageURL,
			&row.Post.ImageMimetype,
			&row.Post.CreatedAt,
			&row.AuthorName,
			&row.LikesCount,
			&row.CommentsCount,
			&row.IsLiked,
		)
		if err != nil {
			return nil, err
		}
		posts = append(posts, row)
	}
	return posts, rows.Err()
}

func (r *FeedRepository) GetPost(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	query := `SELECT id, company_id, author_id, content, image_url, image_mimetype, created_at FROM posts WHERE id = $1`

	var post models.Post
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&post.ID,
		&post.CompanyID,
		&post.AuthorID,
		&post.Content,
		&post.ImageURL,
		&post.ImageMimetype,
		&post.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &post, nil
}

func (r *FeedRepository) GetPostImage(ctx context.Context, id uuid.UUID) ([]byte, string, error) {
	query := `SELECT image_data, image_mimetype FROM posts WHERE id = $1 AND image_data IS NOT NULL`

	var data []byte
	var mimetype *string
	err := r.pool.QueryRow(ctx, query, id).Scan(&data, &mimetype)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", nil
		}
		return nil, "", err
	}
	mt := "image/png"
	if mimetype != nil {
		mt = *mimetype
	}
	return data, mt, nil
}

// ToggleLike flips the viewer's like on a post. Returns the new liked
// state and the fresh count.
func (r *FeedRepository) ToggleLike(ctx context.Context, postID, userID uuid.UUID) (bool, int, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM likes WHERE post_id = $1 AND user_id = $2`, postID, userID)
	if err != nil {
		return false, 0, err
	}

	liked := false
	if tag.RowsAffected() == 0 {
		query := `INSERT INTO likes (id, post_id, user_id, created_at) VALUES ($1, $2, $3, NOW())`
		if _, err := r.pool.Exec(ctx, query, uuid.New(), postID, userID); err != nil {
			return false, 0, err
		}
		liked = true
	}

	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM likes WHERE post_id = $1`, postID).Scan(&count); err != nil {
		return liked, 0, err
	}
	return liked, count, nil
}

func (r *FeedRepository) CreateComment(ctx context.Context, comment *models.Comment) error {
	comment.Prepare()
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now()
	}

	query := `INSERT INTO comments (id, post_id, user_id, text, created_at) VALUES ($1, $2, $3, $4, $5)`
	_, err := r.pool.Exec(ctx, query, comment.ID, comment.PostID, comment.UserID, comment.Text, comment.CreatedAt)
	return err
}

// CommentRow is a comment joined with the commenter's display name.
type CommentRow struct {
	Comment  models.Comment
	Username string
}

func (r *FeedRepository) ListComments(ctx context.Context, postID uuid.UUID) ([]CommentRow, error) {
	query := `
		SELECT c.id, c.post_id, c.user_id, c.text, c.created_at, COALESCE(u.username, u.email)
		FROM comments c
		JOIN users u ON u.id = c.user_id
		WHERE c.post_id = $1
		ORDER BY c.created_at ASC
	`

	rows, err := r.pool.Query(ctx, query, postID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []CommentRow
	for rows.Next() {
		var row CommentRow
		err := rows.Scan(&row.Comment.ID, &row.Comment.PostID, &row.Comment.UserID, &row.Comment.Text, &row.Comment.CreatedAt, &row.Username)
		if err != nil {
			return nil, err
		}
		comments = append(comments, row)
	}
	return comments, rows.Err()
}

func (r *FeedRepository) CreateEvent(ctx context.Context, event *models.FeedEvent) error {
	event.Prepare()
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}
	if event.Metadata == nil {
		event.Metadata = map[string]any{}
	}

	query := `INSERT INTO feed_events (id, company_id, user_id, event_type, message, metadata, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.pool.Exec(ctx, query,
		event.ID,
		event.CompanyID,
		event.UserID,
		event.EventType,
		event.Message,
		event.Metadata,
		event.CreatedAt,
	)
	return err
}

func (r *FeedRepository) ListEvents(ctx context.Context, companyID uuid.UUID, limit int) ([]models.FeedEvent, error) {
	query := `
		SELECT id, company_id, user_id, event_type, message, metadata, created_at
		FROM feed_events
		WHERE company_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, companyID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.FeedEvent
	for rows.Next() {
		var event models.FeedEvent
		err := rows.Scan(
			&event.ID,
			&event.CompanyID,
			&event.UserID,
			&event.EventType,
			&event.Message,
			&event.Metadata,
			&event.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}
