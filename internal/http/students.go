package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cosmosuniversity/studentrecords/internal/auth"
	"github.com/cosmosuniversity/studentrecords/internal/documentdb"
	"github.com/cosmosuniversity/studentrecords/internal/entities"
)

// StudentStore is the subset of the student repository the controller uses.
type StudentStore interface {
	List(ctx context.Context, query *documentdb.Query) ([]entities.Student, error)
	Get(ctx context.Context, id string, partitionKey int) (*entities.Student, error)
	Create(ctx context.Context, student *entities.Student) (*documentdb.Document, error)
	Replace(ctx context.Context, student *entities.Student, id string) (*documentdb.Document, error)
	Delete(ctx context.Context, id string, partitionKey int) (*documentdb.Document, error)
}

// Template names rendered by the controller.
const (
	viewIndex   = "student-index"
	viewDetails = "student-details"
	viewCreate  = "student-create"
	viewEdit    = "student-edit"
	viewDelete  = "student-delete"
)

const indexPath = "/Student"

// StudentsController serves the student pages. Every action performs at
// most one repository call.
type StudentsController struct {
	store    StudentStore
	sessions *auth.SessionManager
	version  string
}

func NewStudentsController(store StudentStore, sessions *auth.SessionManager, version string) *StudentsController {
	return &StudentsController{
		store:    store,
		sessions: sessions,
		version:  version,
	}
}

// Index lists every student, optionally narrowed to one major.
func (controller *StudentsController) Index(c *gin.Context) {
	var query *documentdb.Query
	major := strings.TrimSpace(c.Query(queryParamMajor))
	if major != "" {
		q := documentdb.Where("major", major)
		query = &q
	}

	students, err := controller.store.List(c.Request.Context(), query)
	if err != nil {
		status, message := classifyError(err)
		controller.logFailure(c, "list", err)
		controller.render(c, status, viewIndex, gin.H{
			"Title":    "Students",
			"Students": []entities.Student{},
			"Major":    major,
			"Message":  message,
		})
		return
	}

	controller.render(c, http.StatusOK, viewIndex, gin.H{
		"Title":    "Students",
		"Students": students,
		"Major":    major,
	})
}

// Details shows one student. A missing student renders the same view
// without one, with status 404.
func (controller *StudentsController) Details(c *gin.Context) {
	student, status, message, ok := controller.lookup(c, "details")
	if !ok {
		return
	}
	controller.render(c, status, viewDetails, gin.H{
		"Title":   "Details",
		"Student": student,
		"Message": message,
	})
}

// CreateForm renders an empty create form.
func (controller *StudentsController) CreateForm(c *gin.Context) {
	controller.render(c, http.StatusOK, viewCreate, gin.H{
		"Title":   "Create",
		"Student": &entities.Student{},
		"Errors":  FieldErrors(nil),
	})
}

// Create binds the posted student and inserts it.
func (controller *StudentsController) Create(c *gin.Context) {
	student, errs := bindStudent(c)
	if errs != nil {
		controller.renderForm(c, http.StatusUnprocessableEntity, viewCreate, "Create", &student, errs, msgInvalidForm)
		return
	}

	if _, err := controller.store.Create(c.Request.Context(), &student); err != nil {
		status, message := classifyError(err)
		controller.logFailure(c, "create", err)
		controller.renderForm(c, status, viewCreate, "Create", &student, nil, message)
		return
	}

	controller.redirectToIndex(c, msgCreated)
}

// EditForm renders the edit form pre-filled with the stored student.
func (controller *StudentsController) EditForm(c *gin.Context) {
	student, status, message, ok := controller.lookup(c, "edit")
	if !ok {
		return
	}
	controller.renderForm(c, status, viewEdit, "Edit", student, nil, message)
}

// Edit replaces the student addressed by the id query parameter with the
// posted values. Failures re-render the attempted values.
func (controller *StudentsController) Edit(c *gin.Context) {
	id := c.Query(queryParamID)
	student, errs := bindStudent(c)
	student.ID = id
	if errs != nil {
		controller.renderForm(c, http.StatusUnprocessableEntity, viewEdit, "Edit", &student, errs, msgInvalidForm)
		return
	}

	if _, err := controller.store.Replace(c.Request.Context(), &student, id); err != nil {
		status, message := classifyError(err)
		controller.logFailure(c, "edit", err)
		controller.renderForm(c, status, viewEdit, "Edit", &student, nil, message)
		return
	}

	controller.redirectToIndex(c, msgUpdated)
}

// DeleteForm asks for confirmation before deleting.
func (controller *StudentsController) DeleteForm(c *gin.Context) {
	student, status, message, ok := controller.lookup(c, "delete")
	if !ok {
		return
	}
	controller.render(c, status, viewDelete, gin.H{
		"Title":   "Delete",
		"Student": student,
		"Message": message,
	})
}

// Delete removes the student addressed by the id and pk query parameters.
func (controller *StudentsController) Delete(c *gin.Context) {
	pk, ok := parseQueryPartitionKey(c)
	if !ok {
		return
	}
	id := c.Query(queryParamID)

	if _, err := controller.store.Delete(c.Request.Context(), id, pk); err != nil {
		status, message := classifyError(err)
		controller.logFailure(c, "delete", err)
		// Echo the posted summary without validating it.
		student, _ := bindStudent(c)
		student.ID, student.PK = id, pk
		controller.render(c, status, viewDelete, gin.H{
			"Title":   "Delete",
			"Student": &student,
			"Message": message,
		})
		return
	}

	controller.redirectToIndex(c, msgDeleted)
}

// lookup reads the student named by the id and pk query parameters. It
// returns ok=false only after writing a 400 response for a bad pk.
func (controller *StudentsController) lookup(c *gin.Context, action string) (*entities.Student, int, string, bool) {
	pk, ok := parseQueryPartitionKey(c)
	if !ok {
		return nil, 0, "", false
	}

	student, err := controller.store.Get(c.Request.Context(), c.Query(queryParamID), pk)
	if err != nil {
		status, message := classifyError(err)
		if status >= http.StatusInternalServerError {
			controller.logFailure(c, action, err)
		}
		return nil, status, message, true
	}
	if student == nil {
		return nil, http.StatusNotFound, "", true
	}
	return student, http.StatusOK, "", true
}

func (controller *StudentsController) renderForm(c *gin.Context, status int, view, title string, student *entities.Student, errs FieldErrors, message string) {
	controller.render(c, status, view, gin.H{
		"Title":   title,
		"Student": student,
		"Errors":  errs,
		"Editing": view == viewEdit,
		"Message": message,
	})
}

// render adds the data every page needs and writes the template.
func (controller *StudentsController) render(c *gin.Context, status int, view string, data gin.H) {
	data["CSRFField"] = auth.CSRFTokenField(c)
	data["Version"] = controller.version
	if _, ok := data["Errors"]; !ok {
		data["Errors"] = FieldErrors(nil)
	}
	if controller.sessions != nil {
		data["Flash"] = controller.sessions.PopFlash(c.Request.Context())
	}
	// CSRF failures redirect back here with ?error=.
	if message, _ := data["Message"].(string); message == "" {
		data["Message"] = c.Query("error")
	}
	c.HTML(status, view, data)
}

func (controller *StudentsController) redirectToIndex(c *gin.Context, flash string) {
	if controller.sessions != nil {
		controller.sessions.PutFlash(c.Request.Context(), auth.FlashSuccess, flash)
	}
	c.Redirect(http.StatusSeeOther, indexPath)
}

func (controller *StudentsController) logFailure(c *gin.Context, action string, err error) {
	requestLogger(c).Error().
		Err(err).
		Str("action", action).
		Str("student_id", c.Query(queryParamID)).
		Str("pk", c.Query(queryParamPK)).
		Msg("student action failed")
}

// Home redirects to the student list.
func (controller *StudentsController) Home(c *gin.Context) {
	c.Redirect(http.StatusFound, indexPath)
}
