package cron

import (
	"context"
	"log"
	"time"

	"github.com/simplelms/api/model"
)

// PublishScheduledContent flips is_published on content whose release time
// has passed, then fans out the new-content notifications. Runs every
// minute; each run only touches rows still unpublished.
func (m *CronManager) PublishScheduledContent() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	var due []model.CourseContent
	err := m.db.WithContext(ctx).
		Where("is_published = ? AND release_time IS NOT NULL AND release_time <= ?", false, time.Now()).
		Find(&due).Error
	if err != nil {
		log.Printf("[CRON] publish_scheduled_content: query failed: %v", err)
		return
	}

	if len(due) == 0 {
		return
	}

	published := 0
	for _, content := range due {
		err := m.db.WithContext(ctx).Model(&model.CourseContent{}).
			Where("id = ?", content.ID).
			Update("is_published", true).Error
		if err != nil {
			log.Printf("[CRON] publish_scheduled_content: content %d: %v", content.ID, err)
			continue
		}

		var course model.Course
		if err := m.db.WithContext(ctx).First(&course, content.CourseID).Error; err != nil {
			log.Printf("[CRON] publish_scheduled_content: course %d: %v", content.CourseID, err)
			continue
		}

		if _, err := m.notifications.NotifyContentPublished(ctx, &content, &course); err != nil {
			log.Printf("[CRON] publish_scheduled_content: fan-out for content %d: %v", content.ID, err)
		}

		published++
	}

	log.Printf("[CRON] publish_scheduled_content: published %d of %d due items", published, len(due))
}

// CleanupOldNotifications purges read notifications older than 90 days
func (m *CronManager) CleanupOldNotifications() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	removed, err := m.notifications.CleanupOldNotifications(ctx, 90*24*time.Hour)
	if err != nil {
		log.Printf("[CRON] cleanup_old_notifications: %v", err)
		return
	}

	log.Printf("[CRON] cleanup_old_notifications: removed %d rows", removed)
}
