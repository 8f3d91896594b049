package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/simplelms/api/model"
)

// ForumService owns discussion threads and replies, the pinned/locked
// transitions and the single-winner solution marking.
type ForumService struct {
	db            *gorm.DB
	notifications *NotificationService
}

// NewForumService creates a new forum service
func NewForumService(db *gorm.DB, notifications *NotificationService) *ForumService {
	return &ForumService{db: db, notifications: notifications}
}

// ThreadSummary is a thread plus its derived activity fields
type ThreadSummary struct {
	model.DiscussionThread
	ReplyCount  int64      `json:"reply_count"`
	LastReplyAt *time.Time `json:"last_reply_at"`
}

// ForumStats summarizes forum activity for one course
type ForumStats struct {
	TotalThreads      int64    `json:"total_threads"`
	TotalReplies      int64    `json:"total_replies"`
	ActiveDiscussions int64    `json:"active_discussions"`
	RecentActivity    []string `json:"recent_activity"`
}

// CreateThread creates a thread in the course
func (s *ForumService) CreateThread(ctx context.Context, courseID, authorID uint, title, description string) (*model.DiscussionThread, error) {
	thread := model.DiscussionThread{
		Title:       title,
		Description: description,
		CourseID:    courseID,
		AuthorID:    authorID,
	}
	if err := s.db.WithContext(ctx).Create(&thread).Error; err != nil {
		return nil, fmt.Errorf("failed to create thread: %w", err)
	}

	return &thread, nil
}

// GetThread loads a thread with its author and course
func (s *ForumService) GetThread(ctx context.Context, threadID uint) (*model.DiscussionThread, error) {
	var thread model.DiscussionThread
	err := s.db.WithContext(ctx).
		Preload("Author").
		Preload("Course").
		First(&thread, threadID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrThreadNotFound
		}
		return nil, fmt.Errorf("failed to load thread: %w", err)
	}

	return &thread, nil
}

// ListThreads returns the course's threads, pinned first and then by most
// recent activity, each with reply count and last reply time.
func (s *ForumService) ListThreads(ctx context.Context, courseID uint) ([]ThreadSummary, error) {
	var threads []model.DiscussionThread
	err := s.db.WithContext(ctx).
		Preload("Author").
		Where("course_id = ?", courseID).
		Order("is_pinned DESC, updated_at DESC").
		Find(&threads).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list threads: %w", err)
	}

	summaries := make([]ThreadSummary, 0, len(threads))
	for _, thread := range threads {
		summary := ThreadSummary{DiscussionThread: thread}

		err := s.db.WithContext(ctx).Model(&model.DiscussionReply{}).
			Where("thread_id = ?", thread.ID).
			Count(&summary.ReplyCount).Error
		if err != nil {
			return nil, fmt.Errorf("failed to count replies: %w", err)
		}

		var lastReply model.DiscussionReply
		err = s.db.WithContext(ctx).
			Where("thread_id = ?", thread.ID).
			Order("created_at DESC").
			First(&lastReply).Error
		if err == nil {
			summary.LastReplyAt = &lastReply.CreatedAt
		} else if err != gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("failed to load last reply: %w", err)
		}

		summaries = append(summaries, summary)
	}

	return summaries, nil
}

// UpdateThread applies a title/description edit; thread author or course
// teacher only.
func (s *ForumService) UpdateThread(ctx context.Context, threadID, actorID uint, title, description string) (*model.DiscussionThread, error) {
	thread, err := s.GetThread(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if thread.AuthorID != actorID && thread.Course.TeacherID != actorID {
		return nil, ErrNotTeacher
	}

	if title != "" {
		thread.Title = title
	}
	if description != "" {
		thread.Description = description
	}
	if err := s.db.WithContext(ctx).Save(thread).Error; err != nil {
		return nil, fmt.Errorf("failed to update thread: %w", err)
	}

	return thread, nil
}

// DeleteThread removes the thread; thread author or course teacher only
func (s *ForumService) DeleteThread(ctx context.Context, threadID, actorID uint) error {
	thread, err := s.GetThread(ctx, threadID)
	if err != nil {
		return err
	}
	if thread.AuthorID != actorID && thread.Course.TeacherID != actorID {
		return ErrNotTeacher
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("thread_id = ?", threadID).Delete(&model.DiscussionReply{}).Error; err != nil {
			return fmt.Errorf("failed to delete replies: %w", err)
		}
		if err := tx.Delete(&model.DiscussionThread{}, threadID).Error; err != nil {
			return fmt.Errorf("failed to delete thread: %w", err)
		}
		return nil
	})

	return err
}

// CreateReply adds a reply. A locked thread rejects replies regardless of
// who is asking; the reply then fans out the discussion notifications.
func (s *ForumService) CreateReply(ctx context.Context, threadID, authorID uint, content string, parentReplyID *uint) (*model.DiscussionReply, error) {
	thread, err := s.GetThread(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if thread.IsLocked {
		return nil, ErrThreadLocked
	}

	if parentReplyID != nil {
		var parent model.DiscussionReply
		err := s.db.WithContext(ctx).
			Where("id = ? AND thread_id = ?", *parentReplyID, threadID).
			First(&parent).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, ErrReplyNotFound
			}
			return nil, fmt.Errorf("failed to load parent reply: %w", err)
		}
	}

	reply := model.DiscussionReply{
		ThreadID:      threadID,
		AuthorID:      authorID,
		Content:       content,
		ParentReplyID: parentReplyID,
	}
	if err := s.db.WithContext(ctx).Create(&reply).Error; err != nil {
		return nil, fmt.Errorf("failed to create reply: %w", err)
	}

	// Bump thread activity so the listing order follows replies.
	s.db.WithContext(ctx).Model(&model.DiscussionThread{}).
		Where("id = ?", threadID).
		Update("updated_at", time.Now())

	if err := s.notifications.NotifyDiscussionReply(ctx, thread, &thread.Course, authorID); err != nil {
		log.Printf("discussion reply notification for thread %d: %v", threadID, err)
	}

	return &reply, nil
}

// ListReplies returns the thread's replies in creation order
func (s *ForumService) ListReplies(ctx context.Context, threadID uint) ([]model.DiscussionReply, error) {
	if _, err := s.GetThread(ctx, threadID); err != nil {
		return nil, err
	}

	var replies []model.DiscussionReply
	err := s.db.WithContext(ctx).
		Preload("Author").
		Where("thread_id = ?", threadID).
		Order("created_at ASC").
		Find(&replies).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list replies: %w", err)
	}

	return replies, nil
}

// SetPinned flips the pinned flag; course teacher only
func (s *ForumService) SetPinned(ctx context.Context, threadID, actorID uint, pinned bool) (*model.DiscussionThread, error) {
	thread, err := s.GetThread(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if thread.Course.TeacherID != actorID {
		return nil, ErrNotTeacher
	}

	thread.IsPinned = pinned
	if err := s.db.WithContext(ctx).Save(thread).Error; err != nil {
		return nil, fmt.Errorf("failed to update thread: %w", err)
	}

	return thread, nil
}

// SetLocked flips the locked flag; course teacher only
func (s *ForumService) SetLocked(ctx context.Context, threadID, actorID uint, locked bool) (*model.DiscussionThread, error) {
	thread, err := s.GetThread(ctx, threadID)
	if err != nil {
		return nil, err
	}
	if thread.Course.TeacherID != actorID {
		return nil, ErrNotTeacher
	}

	thread.IsLocked = locked
	if err := s.db.WithContext(ctx).Save(thread).Error; err != nil {
		return nil, fmt.Errorf("failed to update thread: %w", err)
	}

	return thread, nil
}

// MarkSolution marks one reply as the thread's solution. Thread author or
// course teacher only. All sibling flags clear first so at most one reply
// per thread ever carries the flag; both writes share a transaction.
func (s *ForumService) MarkSolution(ctx context.Context, replyID, actorID uint) (*model.DiscussionReply, error) {
	var reply model.DiscussionReply
	err := s.db.WithContext(ctx).First(&reply, replyID).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrReplyNotFound
		}
		return nil, fmt.Errorf("failed to load reply: %w", err)
	}

	thread, err := s.GetThread(ctx, reply.ThreadID)
	if err != nil {
		return nil, err
	}
	if thread.AuthorID != actorID && thread.Course.TeacherID != actorID {
		return nil, ErrNotTeacher
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&model.DiscussionReply{}).
			Where("thread_id = ?", reply.ThreadID).
			Update("is_solution", false).Error
		if err != nil {
			return fmt.Errorf("failed to clear solutions: %w", err)
		}

		err = tx.Model(&model.DiscussionReply{}).
			Where("id = ?", replyID).
			Update("is_solution", true).Error
		if err != nil {
			return fmt.Errorf("failed to mark solution: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	reply.IsSolution = true
	return &reply, nil
}

// Stats summarizes forum activity for one course
func (s *ForumService) Stats(ctx context.Context, courseID uint) (*ForumStats, error) {
	stats := &ForumStats{RecentActivity: []string{}}
	db := s.db.WithContext(ctx)

	err := db.Model(&model.DiscussionThread{}).
		Where("course_id = ?", courseID).
		Count(&stats.TotalThreads).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count threads: %w", err)
	}

	err = db.Model(&model.DiscussionReply{}).
		Joins("JOIN discussion_threads ON discussion_threads.id = discussion_replies.thread_id").
		Where("discussion_threads.course_id = ?", courseID).
		Count(&stats.TotalReplies).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count replies: %w", err)
	}

	cutoff := time.Now().AddDate(0, 0, -7)
	err = db.Model(&model.DiscussionThread{}).
		Where("course_id = ? AND id IN (?)", courseID,
			db.Model(&model.DiscussionReply{}).
				Select("thread_id").
				Where("created_at >= ?", cutoff)).
		Count(&stats.ActiveDiscussions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count active discussions: %w", err)
	}

	var recentReplies []model.DiscussionReply
	err = db.Preload("Author").Preload("Thread").
		Joins("JOIN discussion_threads ON discussion_threads.id = discussion_replies.thread_id").
		Where("discussion_threads.course_id = ?", courseID).
		Order("discussion_replies.created_at DESC").
		Limit(5).
		Find(&recentReplies).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load recent replies: %w", err)
	}
	for _, reply := range recentReplies {
		stats.RecentActivity = append(stats.RecentActivity,
			fmt.Sprintf("%s replied in '%s'", reply.Author.Username, reply.Thread.Title))
	}

	return stats, nil
}
