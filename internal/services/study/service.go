package study

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mcoot/relayview/internal/model"
)

// Source is the upstream endpoint set for study comments
type Source interface {
	Node(ctx context.Context, studyID string, chapterID model.ChapterID, path string) (*model.StudyNode, error)
	DeleteComment(ctx context.Context, studyID string, chapterID model.ChapterID, path, commentID string) error
}

// NodeFullName returns "{turn}. {san}" for white moves and "{turn}... {san}" for black moves
func NodeFullName(n *model.Node) string {
	if n == nil || n.SAN == "" {
		return ""
	}
	turn := (n.Ply + 1) / 2
	if n.Ply%2 == 1 {
		return fmt.Sprintf("%d. %s", turn, n.SAN)
	}
	return fmt.Sprintf("%d... %s", turn, n.SAN)
}

// Query selects the comments of one node as seen by one user
type Query struct {
	StudyID   string
	ChapterID model.ChapterID
	Path      string
	UserID    string
	// IncludingMine keeps the user's own comments in the thread
	IncludingMine bool
	// Write is set when the study is in write mode
	Write bool
}

// Entry is one displayed comment
type Entry struct {
	Comment   model.Comment
	CanDelete bool
}

// Thread is the comment list of a node
type Thread struct {
	StudyID   string
	ChapterID model.ChapterID
	Path      string
	NodeName  string // empty for the root position
	Entries   []Entry
}

// Empty reports whether there is nothing to render
func (t *Thread) Empty() bool {
	return t == nil || len(t.Entries) == 0
}

// BuildThread filters a node's comments for a user. Comments by the user are
// dropped unless includingMine. Contributors in write mode may delete.
func BuildThread(node *model.Node, userID string, includingMine, canDelete bool) *Thread {
	t := &Thread{NodeName: NodeFullName(node)}
	if node == nil {
		return t
	}
	t.Path = node.Path
	for _, c := range node.Comments {
		mine := c.By.IsUser() && c.By.ID == userID
		if mine && !includingMine {
			continue
		}
		t.Entries = append(t.Entries, Entry{Comment: c, CanDelete: canDelete})
	}
	return t
}

// Service reads and deletes study comments
type Service struct {
	source Source
	logger *slog.Logger
}

// New creates a new study Service
func New(source Source, logger *slog.Logger) *Service {
	return &Service{source: source, logger: logger}
}

// Comments returns the comment thread of a node
func (s *Service) Comments(ctx context.Context, q Query) (*Thread, error) {
	sn, err := s.fetch(ctx, q)
	if err != nil {
		return nil, err
	}
	canDelete := q.Write && sn.Study.CanContribute(q.UserID)
	t := BuildThread(&sn.Node, q.UserID, q.IncludingMine, canDelete)
	t.StudyID = q.StudyID
	t.ChapterID = q.ChapterID
	if t.Path == "" {
		t.Path = q.Path
	}
	return t, nil
}

// Delete removes a comment. Only contributors may delete.
func (s *Service) Delete(ctx context.Context, q Query, commentID string) error {
	sn, err := s.fetch(ctx, q)
	if err != nil {
		return err
	}
	if !sn.Study.CanContribute(q.UserID) {
		return model.ErrNotContributor
	}

	if err := s.source.DeleteComment(ctx, q.StudyID, q.ChapterID, q.Path, commentID); err != nil {
		s.logger.Error("failed to delete comment",
			slog.String("study_id", q.StudyID),
			slog.String("chapter_id", string(q.ChapterID)),
			slog.String("comment_id", commentID),
			slog.String("error", err.Error()),
		)
		if errors.Is(err, model.ErrNotFound) {
			return fmt.Errorf("comment %s: %w", commentID, model.ErrNotFound)
		}
		return err
	}

	s.logger.Info("comment deleted",
		slog.String("study_id", q.StudyID),
		slog.String("chapter_id", string(q.ChapterID)),
		slog.String("comment_id", commentID),
		slog.String("user_id", q.UserID),
	)
	return nil
}

// DeletePrompt is the confirmation text shown before deleting a comment
func DeletePrompt(c model.Comment) string {
	return "Delete " + c.By.Text() + "'s comment?"
}

func (s *Service) fetch(ctx context.Context, q Query) (*model.StudyNode, error) {
	sn, err := s.source.Node(ctx, q.StudyID, q.ChapterID, q.Path)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, fmt.Errorf("study %s chapter %s: %w", q.StudyID, q.ChapterID, model.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to fetch node: %w", err)
	}
	return sn, nil
}
