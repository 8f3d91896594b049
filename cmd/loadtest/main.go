package main

import (
	"flag"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"
)

// Load test driving the public API end to end: registers a cohort of
// users, logs them in, has a teacher publish a capacity-limited course
// and then fires concurrent enrollments at the boundary to verify that
// the server never oversells seats. Follows up with progress and forum
// traffic from the enrolled students.

type apiEnvelope struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type account struct {
	Username string
	Token    string
}

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "API base URL")
	students := flag.Int("students", 20, "number of student accounts")
	capacity := flag.Int("capacity", 10, "course capacity for the enrollment burst")
	flag.Parse()

	client := resty.New().
		SetBaseURL(*baseURL + "/api/v1").
		SetTimeout(15 * time.Second).
		SetHeader("Content-Type", "application/json")

	runID := time.Now().UnixNano() % 1_000_000
	start := time.Now()

	log.Printf("load test against %s (run %d)", *baseURL, runID)

	teacher, err := registerAndLogin(client, fmt.Sprintf("lt_teacher_%d", runID))
	if err != nil {
		log.Fatalf("teacher setup failed: %v", err)
	}

	cohort := make([]account, 0, *students)
	for i := 0; i < *students; i++ {
		acct, err := registerAndLogin(client, fmt.Sprintf("lt_student_%d_%d", runID, i))
		if err != nil {
			log.Fatalf("student %d setup failed: %v", i, err)
		}
		cohort = append(cohort, acct)
	}
	log.Printf("registered and logged in %d students in %s", len(cohort), time.Since(start))

	courseID, err := createCourse(client, teacher, fmt.Sprintf("Load Test Course %d", runID), *capacity)
	if err != nil {
		log.Fatalf("course creation failed: %v", err)
	}
	contentIDs, err := publishContents(client, teacher, courseID, 4)
	if err != nil {
		log.Fatalf("content publishing failed: %v", err)
	}

	enrolled := enrollmentBurst(client, cohort, courseID)
	if enrolled > *capacity {
		log.Fatalf("OVERSOLD: %d enrollments accepted for capacity %d", enrolled, *capacity)
	}
	log.Printf("enrollment burst: %d/%d accepted for capacity %d (no overselling)",
		enrolled, len(cohort), *capacity)

	progressAndForumTraffic(client, cohort[:enrolled], courseID, contentIDs)

	log.Printf("load test completed in %s", time.Since(start))
}

func registerAndLogin(client *resty.Client, username string) (account, error) {
	password := "LoadTest!234"

	resp, err := client.R().
		SetBody(map[string]any{
			"username":   username,
			"email":      username + "@loadtest.local",
			"password":   password,
			"first_name": "Load",
			"last_name":  "Tester",
		}).
		Post("/auth/register")
	if err != nil {
		return account{}, err
	}
	// 409 means a previous run left the account behind; log in anyway.
	if resp.IsError() && resp.StatusCode() != 409 {
		return account{}, fmt.Errorf("register %s: %s", username, resp.Status())
	}

	var out apiEnvelope
	resp, err = client.R().
		SetBody(map[string]any{"username": username, "password": password}).
		SetResult(&out).
		Post("/auth/login")
	if err != nil {
		return account{}, err
	}
	if resp.IsError() {
		return account{}, fmt.Errorf("login %s: %s", username, resp.Status())
	}

	token, _ := out.Data["access_token"].(string)
	if token == "" {
		return account{}, fmt.Errorf("login %s: no access token in response", username)
	}
	return account{Username: username, Token: token}, nil
}

func createCourse(client *resty.Client, teacher account, name string, capacity int) (int, error) {
	var out apiEnvelope
	resp, err := client.R().
		SetAuthToken(teacher.Token).
		SetBody(map[string]any{
			"name":         name,
			"description":  "Synthetic course for load testing",
			"price":        0,
			"max_students": capacity,
		}).
		SetResult(&out).
		Post("/courses")
	if err != nil {
		return 0, err
	}
	if resp.IsError() {
		return 0, fmt.Errorf("create course: %s", resp.Status())
	}

	id, ok := out.Data["id"].(float64)
	if !ok {
		return 0, fmt.Errorf("create course: no id in response")
	}
	return int(id), nil
}

func publishContents(client *resty.Client, teacher account, courseID, n int) ([]int, error) {
	ids := make([]int, 0, n)
	for i := 0; i < n; i++ {
		var out apiEnvelope
		resp, err := client.R().
			SetAuthToken(teacher.Token).
			SetBody(map[string]any{
				"name":        fmt.Sprintf("Lesson %d", i+1),
				"description": "Load test lesson",
			}).
			SetResult(&out).
			Post(fmt.Sprintf("/courses/%d/contents", courseID))
		if err != nil {
			return nil, err
		}
		if resp.IsError() {
			return nil, fmt.Errorf("create content %d: %s", i+1, resp.Status())
		}

		id, ok := out.Data["id"].(float64)
		if !ok {
			return nil, fmt.Errorf("create content %d: no id in response", i+1)
		}

		resp, err = client.R().
			SetAuthToken(teacher.Token).
			Put(fmt.Sprintf("/contents/%d/publish", int(id)))
		if err != nil {
			return nil, err
		}
		if resp.IsError() {
			return nil, fmt.Errorf("publish content %d: %s", int(id), resp.Status())
		}
		ids = append(ids, int(id))
	}
	return ids, nil
}

// enrollmentBurst fires every student's enrollment at once and counts
// acceptances. The server must stop exactly at capacity even under this
// contention.
func enrollmentBurst(client *resty.Client, cohort []account, courseID int) int {
	var accepted atomic.Int64
	var rejected atomic.Int64

	var wg sync.WaitGroup
	for _, acct := range cohort {
		wg.Add(1)
		go func(acct account) {
			defer wg.Done()
			resp, err := client.R().
				SetAuthToken(acct.Token).
				Post(fmt.Sprintf("/courses/%d/enroll", courseID))
			if err != nil {
				log.Printf("enroll %s: transport error: %v", acct.Username, err)
				return
			}
			switch {
			case resp.IsSuccess():
				accepted.Add(1)
			case resp.StatusCode() == 409:
				rejected.Add(1)
			default:
				log.Printf("enroll %s: unexpected %s", acct.Username, resp.Status())
			}
		}(acct)
	}
	wg.Wait()

	log.Printf("enrollment burst: %d accepted, %d turned away full",
		accepted.Load(), rejected.Load())
	return int(accepted.Load())
}

func progressAndForumTraffic(client *resty.Client, enrolled []account, courseID int, contentIDs []int) {
	if len(enrolled) == 0 {
		log.Printf("no enrolled students, skipping traffic phase")
		return
	}

	var wg sync.WaitGroup
	var completions, progressReads, threads, replies atomic.Int64

	for i, acct := range enrolled {
		wg.Add(1)
		go func(i int, acct account) {
			defer wg.Done()
			req := func() *resty.Request { return client.R().SetAuthToken(acct.Token) }

			// Complete a varying prefix of the lessons.
			for j := 0; j <= i%len(contentIDs); j++ {
				resp, err := req().Post(fmt.Sprintf("/contents/%d/complete", contentIDs[j]))
				if err == nil && resp.IsSuccess() {
					completions.Add(1)
				}
			}

			resp, err := req().Get(fmt.Sprintf("/courses/%d/progress", courseID))
			if err == nil && resp.IsSuccess() {
				progressReads.Add(1)
			}

			var out apiEnvelope
			resp, err = req().
				SetBody(map[string]any{
					"title":       fmt.Sprintf("Question from %s", acct.Username),
					"description": "How does lesson pacing work under load?",
				}).
				SetResult(&out).
				Post(fmt.Sprintf("/courses/%d/threads", courseID))
			if err != nil || resp.IsError() {
				return
			}
			threads.Add(1)

			threadID, ok := out.Data["id"].(float64)
			if !ok {
				return
			}
			resp, err = req().
				SetBody(map[string]any{"content": "Following up with a reply."}).
				Post(fmt.Sprintf("/threads/%d/replies", int(threadID)))
			if err == nil && resp.IsSuccess() {
				replies.Add(1)
			}
		}(i, acct)
	}
	wg.Wait()

	log.Printf("traffic phase: %d completions, %d progress reads, %d threads, %d replies",
		completions.Load(), progressReads.Load(), threads.Load(), replies.Load())
}
