package main

import (
	"encoding/csv"
	"encoding/json"
	"flag"
	"io"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gorm.io/gorm"

	"github.com/simplelms/api/config"
	"github.com/simplelms/api/database"
	"github.com/simplelms/api/model"
	"github.com/simplelms/api/utils/auth"
)

// Bulk importer for the seed dataset: users, courses and memberships
// from CSV, contents and comments from JSON. Re-running it skips rows
// whose primary keys already exist, so the import is idempotent.

func main() {
	dataDir := flag.String("data", "./csv_data", "directory holding the seed files")
	flag.Parse()

	if err := config.LoadENV(); err != nil {
		log.Printf("no .env loaded: %v", err)
	}

	store, err := database.StartGORM()
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer store.Close()

	if err := store.Init(); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		log.Fatal("failed to get GORM DB instance")
	}

	start := time.Now()

	if err := importUsers(db, filepath.Join(*dataDir, "user-data.csv")); err != nil {
		log.Fatalf("user import failed: %v", err)
	}
	if err := importCourses(db, filepath.Join(*dataDir, "course-data.csv")); err != nil {
		log.Fatalf("course import failed: %v", err)
	}
	if err := importMembers(db, filepath.Join(*dataDir, "member-data.csv")); err != nil {
		log.Fatalf("member import failed: %v", err)
	}
	if err := importContents(db, filepath.Join(*dataDir, "contents.json")); err != nil {
		log.Fatalf("content import failed: %v", err)
	}
	if err := importComments(db, filepath.Join(*dataDir, "comments.json")); err != nil {
		log.Fatalf("comment import failed: %v", err)
	}

	log.Printf("Data import completed in %s", time.Since(start))
}

func readCSV(path string) ([]map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		return nil, err
	}

	var rows []map[string]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		row := make(map[string]string, len(header))
		for i, key := range header {
			if i < len(record) {
				row[key] = record[i]
			}
		}
		rows = append(rows, row)
	}

	return rows, nil
}

func importUsers(db *gorm.DB, path string) error {
	rows, err := readCSV(path)
	if err != nil {
		return err
	}

	var toCreate []model.User
	for _, row := range rows {
		var count int64
		db.Model(&model.User{}).Where("username = ?", row["username"]).Count(&count)
		if count > 0 {
			continue
		}

		hash, err := auth.HashPassword(row["password"])
		if err != nil {
			log.Printf("skipping user %s: %v", row["username"], err)
			continue
		}

		toCreate = append(toCreate, model.User{
			Username:     row["username"],
			Email:        row["email"],
			PasswordHash: hash,
			FirstName:    row["firstname"],
			LastName:     row["lastname"],
		})
	}

	if len(toCreate) > 0 {
		if err := db.CreateInBatches(toCreate, 200).Error; err != nil {
			return err
		}
	}
	log.Printf("imported %d users", len(toCreate))
	return nil
}

func importCourses(db *gorm.DB, path string) error {
	rows, err := readCSV(path)
	if err != nil {
		return err
	}

	var toCreate []model.Course
	for num, row := range rows {
		var count int64
		db.Model(&model.Course{}).Where("id = ?", num+1).Count(&count)
		if count > 0 {
			continue
		}

		teacherID, err := strconv.Atoi(row["teacher"])
		if err != nil {
			log.Printf("skipping course %q: bad teacher id %q", row["name"], row["teacher"])
			continue
		}
		price, _ := strconv.Atoi(row["price"])

		toCreate = append(toCreate, model.Course{
			Name:        row["name"],
			Description: row["description"],
			Price:       price,
			TeacherID:   uint(teacherID),
		})
	}

	if len(toCreate) > 0 {
		if err := db.CreateInBatches(toCreate, 200).Error; err != nil {
			return err
		}
	}
	log.Printf("imported %d courses", len(toCreate))
	return nil
}

func importMembers(db *gorm.DB, path string) error {
	rows, err := readCSV(path)
	if err != nil {
		return err
	}

	var toCreate []model.CourseMember
	for num, row := range rows {
		var count int64
		db.Model(&model.CourseMember{}).Where("id = ?", num+1).Count(&count)
		if count > 0 {
			continue
		}

		courseID, err1 := strconv.Atoi(row["course_id"])
		userID, err2 := strconv.Atoi(row["user_id"])
		if err1 != nil || err2 != nil {
			continue
		}

		role := model.MemberRole(row["roles"])
		if role != model.RoleStudent && role != model.RoleAssistant {
			role = model.RoleStudent
		}

		toCreate = append(toCreate, model.CourseMember{
			CourseID: uint(courseID),
			UserID:   uint(userID),
			Role:     role,
		})
	}

	if len(toCreate) > 0 {
		if err := db.CreateInBatches(toCreate, 200).Error; err != nil {
			return err
		}
	}
	log.Printf("imported %d memberships", len(toCreate))
	return nil
}

type contentRow struct {
	CourseID    json.Number `json:"course_id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	VideoURL    string      `json:"video_url"`
}

func importContents(db *gorm.DB, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var rows []contentRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return err
	}

	var toCreate []model.CourseContent
	for num, row := range rows {
		var count int64
		db.Model(&model.CourseContent{}).Where("id = ?", num+1).Count(&count)
		if count > 0 {
			continue
		}

		courseID, err := row.CourseID.Int64()
		if err != nil {
			continue
		}

		content := model.CourseContent{
			Name:        row.Name,
			Description: row.Description,
			CourseID:    uint(courseID),
		}
		if row.VideoURL != "" {
			videoURL := row.VideoURL
			content.VideoURL = &videoURL
		}
		toCreate = append(toCreate, content)
	}

	if len(toCreate) > 0 {
		if err := db.CreateInBatches(toCreate, 200).Error; err != nil {
			return err
		}
	}
	log.Printf("imported %d contents", len(toCreate))
	return nil
}

type commentRow struct {
	ContentID json.Number `json:"content_id"`
	UserID    json.Number `json:"user_id"`
	Comment   string      `json:"comment"`
}

func importComments(db *gorm.DB, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var rows []commentRow
	if err := json.Unmarshal(data, &rows); err != nil {
		return err
	}

	var toCreate []model.Comment
	for num, row := range rows {
		var count int64
		db.Model(&model.Comment{}).Where("id = ?", num+1).Count(&count)
		if count > 0 {
			continue
		}

		contentID, err := row.ContentID.Int64()
		if err != nil {
			continue
		}
		userID, err := row.UserID.Int64()
		if err != nil {
			continue
		}
		// The dataset references users beyond the seeded range; remap
		// those onto a random seeded student.
		if userID > 50 {
			userID = int64(rand.Intn(36) + 5)
		}

		var content model.CourseContent
		if err := db.First(&content, contentID).Error; err != nil {
			continue
		}

		// Comments attach through the author's membership row; skip
		// commenters who are not members of the content's course.
		var member model.CourseMember
		err = db.Where("course_id = ? AND user_id = ?", content.CourseID, userID).
			First(&member).Error
		if err != nil {
			continue
		}

		toCreate = append(toCreate, model.Comment{
			ContentID: content.ID,
			MemberID:  member.ID,
			Comment:   row.Comment,
		})
	}

	if len(toCreate) > 0 {
		if err := db.CreateInBatches(toCreate, 200).Error; err != nil {
			return err
		}
	}
	log.Printf("imported %d comments", len(toCreate))
	return nil
}
