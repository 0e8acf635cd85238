package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"brigade-service/internal/domain/image"
	"brigade-service/internal/domain/post"
	"brigade-service/internal/repository"
	"brigade-service/internal/storage"
	brigade_errors "brigade-service/pkg/errors"
)

type PostService struct {
	posts       repository.PostRepository
	attachments *AttachmentService
}

func NewPostService(posts repository.PostRepository, attachments *AttachmentService) *PostService {
	return &PostService{posts: posts, attachments: attachments}
}

type PostInput struct {
	Title     string
	ShortText string
	Content   string
}

type PostView struct {
	ID        uint        `json:"id"`
	Title     string      `json:"title"`
	ShortText string      `json:"shortText"`
	Content   string      `json:"content"`
	CreatedAt time.Time   `json:"createdAt"`
	Images    []ImageView `json:"images"`
}

func (s *PostService) List(ctx context.Context) ([]PostView, error) {
	posts, err := s.posts.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]PostView, 0, len(posts))
	for _, p := range posts {
		v, err := s.view(ctx, p)
		if err != nil {
			return nil, err
		}
		result = append(result, v)
	}
	return result, nil
}

func (s *PostService) Get(ctx context.Context, id uint) (PostView, error) {
	p, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return PostView{}, err
	}
	return s.view(ctx, p)
}

func (s *PostService) Create(ctx context.Context, in PostInput, files []storage.FileInput) (PostView, error) {
	if err := validatePost(in); err != nil {
		return PostView{}, err
	}

	res, err := s.attachments.CreateWithImages(ctx, image.KindPost,
		func(ctx context.Context) (uint, error) {
			p := &post.Post{
				Title:     strings.TrimSpace(in.Title),
				ShortText: in.ShortText,
				Content:   in.Content,
			}
			if err := s.posts.Create(ctx, p); err != nil {
				return 0, err
			}
			return p.ID, nil
		},
		s.posts.Delete,
		files,
	)
	if err != nil {
		return PostView{}, err
	}
	return s.Get(ctx, res.OwnerID)
}

func (s *PostService) Update(ctx context.Context, id uint, in PostInput) (PostView, error) {
	if err := validatePost(in); err != nil {
		return PostView{}, err
	}
	p, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return PostView{}, err
	}

	p.Title = strings.TrimSpace(in.Title)
	p.ShortText = in.ShortText
	p.Content = in.Content
	if err := s.posts.Update(ctx, p); err != nil {
		return PostView{}, err
	}
	return s.view(ctx, p)
}

// Delete removes the post images first and the post row last.
func (s *PostService) Delete(ctx context.Context, id uint) error {
	p, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.attachments.RemoveImages(ctx, p.Images); err != nil {
		return fmt.Errorf("delete post %d: %w", id, err)
	}
	return s.posts.Delete(ctx, id)
}

func (s *PostService) view(ctx context.Context, p post.Post) (PostView, error) {
	images, err := s.attachments.Views(ctx, p.Images)
	if err != nil {
		return PostView{}, err
	}
	return PostView{
		ID:        p.ID,
		Title:     p.Title,
		ShortText: p.ShortText,
		Content:   p.Content,
		CreatedAt: p.CreatedAt,
		Images:    images,
	}, nil
}

func validatePost(in PostInput) error {
	if strings.TrimSpace(in.Title) == "" {
		return fmt.Errorf("%w: title is required", brigade_errors.ErrInvalidInput)
	}
	return nil
}
