package integration

import (
	"context"
	"net/http"
	"testing"

	"github.com/dimitrije/smsdesk/internal/flash"
	"github.com/dimitrije/smsdesk/internal/forms"
	"github.com/dimitrije/smsdesk/internal/handlers"
	authmw "github.com/dimitrije/smsdesk/internal/middleware"
	"github.com/dimitrije/smsdesk/internal/models"
	"github.com/dimitrije/smsdesk/internal/permissions"
	"github.com/dimitrije/smsdesk/internal/services"
	"github.com/dimitrije/smsdesk/internal/session"
	"github.com/dimitrije/smsdesk/internal/workflow"
	"github.com/dimitrije/smsdesk/pkg/dto"
	"github.com/dimitrije/smsdesk/tests/testutil"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/m1z23r/drift/pkg/middleware"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

type apiFixture struct {
	fx     *testutil.Fixtures
	client *testutil.HTTPTestClient
	store  *services.SmsService
	users  *services.UserService
}

func setupAPI(t *testing.T) *apiFixture {
	t.Helper()
	tdb, fx := setupTest(t)

	store := services.NewSmsService(tdb.DB)
	audit := services.NewAuditService(tdb.DB)

	hooks := workflow.DefaultHooks()
	hooks.PostSave = append(hooks.PostSave, audit.SmsSaved)
	hooks.PostDelete = append(hooks.PostDelete, audit.SmsDeleted)

	wf := workflow.New(workflow.Config{
		Store:    store,
		AuditLog: audit,
		Stats:    services.NewStatsService(tdb.DB),
		Lookups:  services.NewLookupService(tdb.DB, "https://sms.example.com"),
		Hooks:    hooks,
		Logger:   zerolog.Nop(),
	})

	translator, err := flash.NewTranslator(language.English, nil)
	require.NoError(t, err)

	sessions := session.NewMemoryStore()
	smsHandler := handlers.NewSmsHandler(wf, func(context.Context) session.Store { return sessions }, translator, zerolog.Nop())

	app := drift.New()
	app.Use(middleware.BodyParser())

	api := app.Group("/api/v1")
	protected := api.Group("")
	users := services.NewUserService(tdb.DB)
	protected.Use(authmw.Auth(testutil.TestJWTService()))
	protected.Use(authmw.CurrentRole(users))
	protected.Use(authmw.Permissions(services.NewPermissionService(tdb.DB)))

	protected.Get("/sms", smsHandler.List)
	protected.Post("/sms/new", smsHandler.New)
	protected.Get("/sms/edit/:id", smsHandler.Edit)
	protected.Post("/sms/delete/:id", smsHandler.Delete)

	return &apiFixture{
		fx:     fx,
		client: testutil.NewHTTPTestClient(t, app),
		store:  store,
		users:  users,
	}
}

func (f *apiFixture) as(t *testing.T, user *models.User) *testutil.HTTPTestClient {
	return f.client.WithToken(testutil.GenerateTestToken(t, user.ID, user.Email, user.Role))
}

func TestAPI_Integration_CreateThenList(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	f := setupAPI(t)
	admin := f.fx.CreateUser(t, testutil.WithRole(models.RoleSuperAdmin))
	client := f.as(t, admin)

	name, message, smsType := "Spring promo", "Hi {contactfield=firstname}", models.SmsTypeTemplate
	rec := client.POST("/api/v1/sms/new", dto.SmsFormRequest{
		Button: forms.ButtonSave,
		Fields: forms.Fields{Name: &name, Message: &message, SmsType: &smsType},
	}, nil)
	testutil.AssertStatus(t, rec, http.StatusOK)

	var created dto.WorkflowResponse
	testutil.ParseJSON(t, rec, &created)
	assert.Equal(t, "redirect", created.Outcome)
	assert.Contains(t, created.ReturnURL, "/api/v1/sms/view/")
	require.NotEmpty(t, created.Flashes)
	assert.Equal(t, flash.KeyItemCreated, created.Flashes[len(created.Flashes)-1].Key)

	rec = client.GET("/api/v1/sms", nil)
	testutil.AssertStatus(t, rec, http.StatusOK)

	var listed dto.WorkflowResponse
	testutil.ParseJSON(t, rec, &listed)
	assert.Equal(t, "sms/list", listed.ContentTemplate)
	assert.EqualValues(t, 1, listed.ViewParameters["totalItems"])
}

func TestAPI_Integration_EditPermissionsAndLock(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	f := setupAPI(t)
	f.fx.GrantRole(t, "editor", permissions.SmsViewOwn, permissions.SmsEditOwn)

	admin := f.fx.CreateUser(t, testutil.WithRole(models.RoleSuperAdmin))
	otherAdmin := f.fx.CreateUser(t, testutil.WithRole(models.RoleSuperAdmin))
	editor := f.fx.CreateUser(t, testutil.WithRole("editor"))
	sms := f.fx.CreateSms(t, admin)

	rec := f.as(t, editor).GET("/api/v1/sms/edit/"+sms.ID.String(), nil)
	testutil.AssertStatus(t, rec, http.StatusForbidden)

	rec = f.as(t, admin).GET("/api/v1/sms/edit/"+sms.ID.String(), nil)
	testutil.AssertStatus(t, rec, http.StatusOK)

	locked, err := f.store.GetByID(context.Background(), sms.ID)
	require.NoError(t, err)
	require.NotNil(t, locked.CheckedOutBy)
	assert.Equal(t, admin.ID, *locked.CheckedOutBy)

	rec = f.as(t, otherAdmin).GET("/api/v1/sms/edit/"+sms.ID.String(), nil)
	testutil.AssertStatus(t, rec, http.StatusOK)

	var res dto.WorkflowResponse
	testutil.ParseJSON(t, rec, &res)
	assert.Equal(t, "redirect", res.Outcome)
	require.Len(t, res.Flashes, 1)
	assert.Equal(t, flash.KeyLocked, res.Flashes[0].Key)
}

func TestAPI_Integration_DeleteOwnOnly(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	f := setupAPI(t)
	f.fx.GrantRole(t, "editor", permissions.SmsViewOwn, permissions.SmsDeleteOwn)

	admin := f.fx.CreateUser(t, testutil.WithRole(models.RoleSuperAdmin))
	editor := f.fx.CreateUser(t, testutil.WithRole("editor"))
	theirs := f.fx.CreateSms(t, admin)
	mine := f.fx.CreateSms(t, editor)

	rec := f.as(t, editor).POST("/api/v1/sms/delete/"+theirs.ID.String(), nil, nil)
	testutil.AssertStatus(t, rec, http.StatusForbidden)

	rec = f.as(t, editor).POST("/api/v1/sms/delete/"+mine.ID.String(), nil, nil)
	testutil.AssertStatus(t, rec, http.StatusOK)

	_, err := f.store.GetByID(context.Background(), mine.ID)
	assert.ErrorIs(t, err, services.ErrSmsNotFound)
	_, err = f.store.GetByID(context.Background(), theirs.ID)
	assert.NoError(t, err)
}

func TestAPI_Integration_PromotionAppliesToIssuedToken(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	f := setupAPI(t)
	admin := f.fx.CreateUser(t, testutil.WithRole(models.RoleSuperAdmin))
	editor := f.fx.CreateUser(t, testutil.WithRole("editor"))
	sms := f.fx.CreateSms(t, admin)
	client := f.as(t, editor)

	rec := client.GET("/api/v1/sms/edit/"+sms.ID.String(), nil)
	testutil.AssertStatus(t, rec, http.StatusForbidden)

	require.NoError(t, f.users.SetRole(context.Background(), editor.Email, models.RoleSuperAdmin))

	rec = client.GET("/api/v1/sms/edit/"+sms.ID.String(), nil)
	testutil.AssertStatus(t, rec, http.StatusOK)
}
