package handler_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/hanafi-dev/lms-go-api/internal/dto"
	"github.com/hanafi-dev/lms-go-api/internal/models"
)

func TestSubmissionHandlerSubmitAndGrade(t *testing.T) {
	app, db := setupTestApp(t)

	instructor := seedUser(t, db, models.RoleInstructor, "teach@example.com")
	student := seedUser(t, db, models.RoleStudent, "learn@example.com")

	resp, err := app.Test(authedRequest(t, "POST", "/api/v1/courses", fiber.Map{
		"title":       "Cryptography",
		"description": "Ciphers, hashes and key exchange",
	}, instructor))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var course struct {
		Data dto.CourseResponse `json:"data"`
	}
	decodeResponse(t, resp, &course)

	resp, err = app.Test(authedRequest(t, "POST", "/api/v1/assignments", fiber.Map{
		"course_id": course.Data.ID,
		"title":     "RSA Lab",
		"points":    50,
		"due_date":  time.Now().Add(48 * time.Hour).Format(time.RFC3339),
	}, instructor))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var assignment struct {
		Data dto.AssignmentResponse `json:"data"`
	}
	decodeResponse(t, resp, &assignment)

	resp, err = app.Test(authedRequest(t, "POST", "/api/v1/enrollments/enroll-by-code", fiber.Map{
		"enrollment_code": course.Data.EnrollmentCode,
	}, student))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	// The student submits their work.
	resp, err = app.Test(authedRequest(t, "PUT", fmt.Sprintf("/api/v1/submissions/assignments/%d", assignment.Data.ID), fiber.Map{
		"submission_text": "factored the modulus",
		"attachments": []fiber.Map{
			{"name": "writeup.pdf", "file_url": "https://files.example.com/writeup.pdf"},
		},
	}, student))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var submitted struct {
		Data dto.SubmissionResponse `json:"data"`
	}
	decodeResponse(t, resp, &submitted)
	require.Equal(t, models.SubmissionStatusCompleted, submitted.Data.Status)
	require.NotNil(t, submitted.Data.SubmissionDate)
	require.Len(t, submitted.Data.Attachments, 1)

	// Grades above the point value are rejected.
	grade := 80.0
	resp, err = app.Test(authedRequest(t, "PATCH", fmt.Sprintf("/api/v1/submissions/%d/grade", submitted.Data.ID), fiber.Map{
		"grade": grade,
	}, instructor))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	grade = 45.0
	resp, err = app.Test(authedRequest(t, "PATCH", fmt.Sprintf("/api/v1/submissions/%d/grade", submitted.Data.ID), fiber.Map{
		"grade":    grade,
		"feedback": "clean work",
	}, instructor))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var graded struct {
		Data dto.SubmissionResponse `json:"data"`
	}
	decodeResponse(t, resp, &graded)
	require.NotNil(t, graded.Data.Grade)
	require.Equal(t, 45.0, *graded.Data.Grade)
	require.Equal(t, "clean work", graded.Data.Feedback)

	// Students cannot open the instructor's per-assignment listing.
	resp, err = app.Test(authedRequest(t, "GET", fmt.Sprintf("/api/v1/submissions/assignments/%d", assignment.Data.ID), nil, student))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, err = app.Test(authedRequest(t, "GET", fmt.Sprintf("/api/v1/submissions/assignments/%d", assignment.Data.ID), nil, instructor))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var listing struct {
		Data []dto.SubmissionResponse `json:"data"`
	}
	decodeResponse(t, resp, &listing)
	require.Len(t, listing.Data, 1)

	// The student sees their own submissions, grade included.
	resp, err = app.Test(authedRequest(t, "GET", "/api/v1/submissions/student", nil, student))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var own struct {
		Data []dto.SubmissionResponse `json:"data"`
	}
	decodeResponse(t, resp, &own)
	require.Len(t, own.Data, 1)
	require.NotNil(t, own.Data[0].Grade)

	// But not another student's.
	other := seedUser(t, db, models.RoleStudent, "other@example.com")
	resp, err = app.Test(authedRequest(t, "GET", fmt.Sprintf("/api/v1/submissions/student/%d", student.ID), nil, other))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	// Instructors looking up an unknown student get a 404, not an empty list.
	resp, err = app.Test(authedRequest(t, "GET", "/api/v1/submissions/student/9999", nil, instructor))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestSubmissionHandlerRequiresEnrollment(t *testing.T) {
	app, db := setupTestApp(t)

	instructor := seedUser(t, db, models.RoleInstructor, "teach@example.com")
	outsider := seedUser(t, db, models.RoleStudent, "out@example.com")

	resp, err := app.Test(authedRequest(t, "POST", "/api/v1/courses", fiber.Map{
		"title":       "Machine Learning",
		"description": "Gradient descent and regularisation",
	}, instructor))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var course struct {
		Data dto.CourseResponse `json:"data"`
	}
	decodeResponse(t, resp, &course)

	resp, err = app.Test(authedRequest(t, "POST", "/api/v1/assignments", fiber.Map{
		"course_id": course.Data.ID,
		"title":     "Regression Lab",
		"due_date":  time.Now().Add(48 * time.Hour).Format(time.RFC3339),
	}, instructor))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var assignment struct {
		Data dto.AssignmentResponse `json:"data"`
	}
	decodeResponse(t, resp, &assignment)

	resp, err = app.Test(authedRequest(t, "PUT", fmt.Sprintf("/api/v1/submissions/assignments/%d", assignment.Data.ID), fiber.Map{
		"submission_text": "not my class",
	}, outsider))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}
