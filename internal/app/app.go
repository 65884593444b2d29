package app

import (
	"context"
	"fmt"

	"github.com/glabrego/yomu-cli/internal/mangadex"
)

type MangaClient interface {
	Search(ctx context.Context, query string) ([]mangadex.Title, error)
	ListChapters(ctx context.Context, titleID, language string) ([]mangadex.Chapter, error)
	FetchManifest(ctx context.Context, chapterID string) (mangadex.Manifest, error)
}

// Service is what the reader's screens need from the catalog.
type Service struct {
	client    MangaClient
	language  string
	dataSaver bool
}

func NewService(client MangaClient, language string, dataSaver bool) *Service {
	return &Service{client: client, language: language, dataSaver: dataSaver}
}

func (s *Service) Search(ctx context.Context, query string) ([]mangadex.Title, error) {
	titles, err := s.client.Search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search titles: %w", err)
	}
	return titles, nil
}

func (s *Service) ListChapters(ctx context.Context, titleID string) ([]mangadex.Chapter, error) {
	chapters, err := s.client.ListChapters(ctx, titleID, s.language)
	if err != nil {
		return nil, fmt.Errorf("list chapters: %w", err)
	}
	return chapters, nil
}

// OpenChapter resolves the page image URLs of a chapter in reading order.
func (s *Service) OpenChapter(ctx context.Context, chapterID string) ([]string, error) {
	manifest, err := s.client.FetchManifest(ctx, chapterID)
	if err != nil {
		return nil, fmt.Errorf("open chapter: %w", err)
	}
	return manifest.PageURLs(s.dataSaver), nil
}

func (s *Service) ChapterWebURL(chapterID string) string {
	return mangadex.ChapterWebURL(chapterID)
}

func (s *Service) Language() string {
	return s.language
}
