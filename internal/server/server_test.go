package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/pathway/internal/authorization"
	collectiondomain "github.com/smallbiznis/pathway/internal/collection/domain"
	coursedomain "github.com/smallbiznis/pathway/internal/course/domain"
	organizationdomain "github.com/smallbiznis/pathway/internal/organization/domain"
	paymentsconfigdomain "github.com/smallbiznis/pathway/internal/paymentsconfig/domain"
	traildomain "github.com/smallbiznis/pathway/internal/trail/domain"
	"go.uber.org/zap"
)

type fakeOrganizationService struct {
	orgs map[string]*organizationdomain.OrganizationResponse
}

func (f *fakeOrganizationService) Create(ctx context.Context, userID snowflake.ID, req organizationdomain.CreateOrganizationRequest) (*organizationdomain.OrganizationResponse, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, organizationdomain.ErrInvalidName
	}
	return &organizationdomain.OrganizationResponse{ID: "99", Name: req.Name}, nil
}

func (f *fakeOrganizationService) GetByID(ctx context.Context, id string) (*organizationdomain.OrganizationResponse, error) {
	org, ok := f.orgs[id]
	if !ok {
		return nil, organizationdomain.ErrNotFound
	}
	return org, nil
}

func (f *fakeOrganizationService) AddMember(ctx context.Context, orgID snowflake.ID, req organizationdomain.AddMemberRequest) (*organizationdomain.MemberResponse, error) {
	return &organizationdomain.MemberResponse{OrgID: orgID.String(), UserID: req.UserID.String(), Role: req.Role}, nil
}

type fakeCourseService struct {
	courses map[snowflake.ID]*coursedomain.Course
}

func (f *fakeCourseService) Create(ctx context.Context, orgID snowflake.ID, req coursedomain.CreateCourseRequest) (*coursedomain.Course, error) {
	return &coursedomain.Course{ID: 500, OrgID: orgID, Name: req.Name, Public: req.Public}, nil
}

func (f *fakeCourseService) Get(ctx context.Context, id snowflake.ID) (*coursedomain.Course, error) {
	course, ok := f.courses[id]
	if !ok {
		return nil, coursedomain.ErrNotFound
	}
	return course, nil
}

type authzCall struct {
	actor   string
	orgUUID string
	object  string
	action  string
}

type fakeAuthzService struct {
	calls []authzCall
	deny  bool
}

func (f *fakeAuthzService) Authorize(ctx context.Context, actor string, orgUUID string, object string, action string) error {
	f.calls = append(f.calls, authzCall{actor: actor, orgUUID: orgUUID, object: object, action: action})
	if f.deny {
		return authorization.ErrForbidden
	}
	return nil
}

type fakePaymentsConfigService struct {
	actors []string
	err    error
}

func (f *fakePaymentsConfigService) Init(ctx context.Context, actor string, orgID snowflake.ID, provider string) (*paymentsconfigdomain.PaymentsConfig, error) {
	f.actors = append(f.actors, actor)
	if f.err != nil {
		return nil, f.err
	}
	return &paymentsconfigdomain.PaymentsConfig{ID: 1, OrgID: orgID, Provider: provider}, nil
}

func (f *fakePaymentsConfigService) Get(ctx context.Context, actor string, orgID snowflake.ID) ([]paymentsconfigdomain.PaymentsConfig, error) {
	f.actors = append(f.actors, actor)
	if f.err != nil {
		return nil, f.err
	}
	return []paymentsconfigdomain.PaymentsConfig{}, nil
}

func (f *fakePaymentsConfigService) Update(ctx context.Context, actor string, orgID snowflake.ID, req paymentsconfigdomain.UpdateRequest) (*paymentsconfigdomain.PaymentsConfig, error) {
	f.actors = append(f.actors, actor)
	if f.err != nil {
		return nil, f.err
	}
	return &paymentsconfigdomain.PaymentsConfig{ID: 1, OrgID: orgID, Provider: req.Provider}, nil
}

func (f *fakePaymentsConfigService) Delete(ctx context.Context, actor string, orgID snowflake.ID) error {
	f.actors = append(f.actors, actor)
	return f.err
}

type fakeTrailService struct {
	userIDs []snowflake.ID
	err     error
}

func (f *fakeTrailService) response(userID snowflake.ID) (*traildomain.TrailResponse, error) {
	f.userIDs = append(f.userIDs, userID)
	if f.err != nil {
		return nil, f.err
	}
	return &traildomain.TrailResponse{
		Trail: traildomain.Trail{ID: 1, UserID: userID},
		Runs:  []traildomain.TrailRunResponse{},
	}, nil
}

func (f *fakeTrailService) CreateTrail(ctx context.Context, userID, orgID snowflake.ID) (*traildomain.Trail, error) {
	f.userIDs = append(f.userIDs, userID)
	if f.err != nil {
		return nil, f.err
	}
	return &traildomain.Trail{ID: 1, OrgID: orgID, UserID: userID}, nil
}

func (f *fakeTrailService) GetTrail(ctx context.Context, userID snowflake.ID) (*traildomain.TrailResponse, error) {
	return f.response(userID)
}

func (f *fakeTrailService) GetTrailByOrg(ctx context.Context, userID, orgID snowflake.ID) (*traildomain.TrailResponse, error) {
	return f.response(userID)
}

func (f *fakeTrailService) AddActivityToTrail(ctx context.Context, userID, courseID, activityID snowflake.ID) (*traildomain.TrailResponse, error) {
	return f.response(userID)
}

func (f *fakeTrailService) AddCourseToTrail(ctx context.Context, userID, courseID snowflake.ID) (*traildomain.TrailResponse, error) {
	return f.response(userID)
}

func (f *fakeTrailService) RemoveCourseFromTrail(ctx context.Context, userID, courseID snowflake.ID) (*traildomain.TrailResponse, error) {
	return f.response(userID)
}

type fakeCollectionService struct {
	actors   []string
	requests []collectiondomain.CreateCollectionRequest
	lists    []collectiondomain.ListCollectionsRequest
	uuids    []string
	err      error
}

func (f *fakeCollectionService) Create(ctx context.Context, actor string, orgID snowflake.ID, req collectiondomain.CreateCollectionRequest) (*collectiondomain.CollectionResponse, error) {
	f.actors = append(f.actors, actor)
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	return &collectiondomain.CollectionResponse{
		Collection: collectiondomain.Collection{ID: 1, OrgID: orgID, Name: req.Name},
		Courses:    []coursedomain.Course{},
	}, nil
}

func (f *fakeCollectionService) Get(ctx context.Context, actor string, collectionUUID string) (*collectiondomain.CollectionResponse, error) {
	f.actors = append(f.actors, actor)
	f.uuids = append(f.uuids, collectionUUID)
	if f.err != nil {
		return nil, f.err
	}
	return &collectiondomain.CollectionResponse{
		Collection: collectiondomain.Collection{ID: 1, CollectionUUID: collectionUUID},
		Courses:    []coursedomain.Course{},
	}, nil
}

func (f *fakeCollectionService) ListByOrg(ctx context.Context, actor string, orgID snowflake.ID, req collectiondomain.ListCollectionsRequest) (collectiondomain.ListCollectionsResponse, error) {
	f.actors = append(f.actors, actor)
	f.lists = append(f.lists, req)
	if f.err != nil {
		return collectiondomain.ListCollectionsResponse{}, f.err
	}
	return collectiondomain.ListCollectionsResponse{Collections: []collectiondomain.CollectionResponse{}}, nil
}

func (f *fakeCollectionService) Delete(ctx context.Context, actor string, collectionUUID string) error {
	f.actors = append(f.actors, actor)
	f.uuids = append(f.uuids, collectionUUID)
	return f.err
}

type testDeps struct {
	authz       *fakeAuthzService
	payments    *fakePaymentsConfigService
	trails      *fakeTrailService
	collections *fakeCollectionService
}

func newTestRouter(t *testing.T) (*gin.Engine, *testDeps) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	deps := &testDeps{
		authz:       &fakeAuthzService{},
		payments:    &fakePaymentsConfigService{},
		trails:      &fakeTrailService{},
		collections: &fakeCollectionService{},
	}

	router := gin.New()
	router.Use(ErrorHandlingMiddleware())

	srv := &Server{
		engine:   router,
		log:      zap.NewNop(),
		authzSvc: deps.authz,
		organizationSvc: &fakeOrganizationService{orgs: map[string]*organizationdomain.OrganizationResponse{
			"10": {ID: "10", OrgUUID: "org-uuid-10", Name: "Acme", Slug: "acme"},
		}},
		courseSvc: &fakeCourseService{courses: map[snowflake.ID]*coursedomain.Course{
			20: {ID: 20, OrgID: 10, Name: "Go 101", Public: true},
			21: {ID: 21, OrgID: 10, Name: "Internal", Public: false},
		}},
		collectionSvc:     deps.collections,
		paymentsConfigSvc: deps.payments,
		trailSvc:          deps.trails,
	}
	srv.RegisterRoutes()

	return router, deps
}

func doRequest(router http.Handler, method, path string, body string, headers map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func userHeaders(id string) map[string]string {
	return map[string]string{HeaderUserID: id}
}

func decodeError(t *testing.T, resp *httptest.ResponseRecorder) errorPayload {
	t.Helper()
	var body errorResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v (%s)", err, resp.Body.String())
	}
	return body.Error
}

func TestMapErrorStatuses(t *testing.T) {
	cases := []struct {
		err    error
		status int
		typ    string
	}{
		{paymentsconfigdomain.ErrOrganizationNotFound, http.StatusNotFound, "not_found"},
		{paymentsconfigdomain.ErrNotFound, http.StatusNotFound, "not_found"},
		{paymentsconfigdomain.ErrAlreadyExists, http.StatusConflict, "conflict"},
		{paymentsconfigdomain.ErrInvalidProvider, http.StatusBadRequest, "validation_error"},
		{traildomain.ErrTrailNotFound, http.StatusNotFound, "not_found"},
		{traildomain.ErrCourseNotFound, http.StatusNotFound, "not_found"},
		{traildomain.ErrTrailExists, http.StatusConflict, "conflict"},
		{traildomain.ErrTrailRunExists, http.StatusConflict, "conflict"},
		{collectiondomain.ErrNotFound, http.StatusNotFound, "not_found"},
		{collectiondomain.ErrInvalidCourse, http.StatusBadRequest, "validation_error"},
		{collectiondomain.ErrInvalidPageToken, http.StatusBadRequest, "validation_error"},
		{authorization.ErrForbidden, http.StatusForbidden, "forbidden"},
		{ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
		{ErrRateLimited, http.StatusTooManyRequests, "rate_limited"},
		{ErrServiceUnavailable, http.StatusServiceUnavailable, "service_unavailable"},
		{errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tc := range cases {
		status, payload := mapError(tc.err)
		if status != tc.status {
			t.Fatalf("%v: expected status %d, got %d", tc.err, tc.status, status)
		}
		if payload.Type != tc.typ {
			t.Fatalf("%v: expected type %q, got %q", tc.err, tc.typ, payload.Type)
		}
	}
}

func TestNotFoundMessageNamesEntity(t *testing.T) {
	_, payload := mapError(traildomain.ErrTrailNotFound)
	if payload.Message != "trail not found" {
		t.Fatalf("unexpected message %q", payload.Message)
	}
	_, payload = mapError(paymentsconfigdomain.ErrAlreadyExists)
	if payload.Message != "payments config already exists" {
		t.Fatalf("unexpected message %q", payload.Message)
	}
}

func TestActorFromHeaders(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name    string
		headers map[string]string
		want    Actor
		wantErr bool
	}{
		{name: "no headers", want: Actor{Type: ActorAnonymous}},
		{name: "user", headers: userHeaders("42"), want: Actor{Type: ActorUser, ID: "42", UserID: 42}},
		{name: "system", headers: map[string]string{HeaderActorType: "system"}, want: Actor{Type: ActorSystem, ID: "system"}},
		{name: "user type without id", headers: map[string]string{HeaderActorType: "user"}, wantErr: true},
		{name: "bad id", headers: userHeaders("abc"), wantErr: true},
		{name: "unknown type", headers: map[string]string{HeaderActorType: "robot"}, wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tc.headers {
				c.Request.Header.Set(k, v)
			}
			got, err := actorFromHeaders(c)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got actor %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("expected %+v, got %+v", tc.want, got)
			}
		})
	}
}

func TestActorSubject(t *testing.T) {
	if got := (Actor{Type: ActorUser, ID: "7"}).subject(); got != "user:7" {
		t.Fatalf("unexpected subject %q", got)
	}
	if got := (Actor{Type: ActorSystem}).subject(); got != authorization.ActorSystem {
		t.Fatalf("unexpected subject %q", got)
	}
	if got := (Actor{}).subject(); got != authorization.ActorAnonymous {
		t.Fatalf("unexpected subject %q", got)
	}
}

func TestTrailRoutesRequireUser(t *testing.T) {
	router, deps := newTestRouter(t)

	resp := doRequest(router, http.MethodGet, "/api/trail", "", nil)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", resp.Code)
	}
	if len(deps.trails.userIDs) != 0 {
		t.Fatalf("trail service should not be called")
	}

	resp = doRequest(router, http.MethodGet, "/api/trail", "", map[string]string{HeaderActorType: "system"})
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401 for system actor, got %d", resp.Code)
	}
}

func TestGetTrailUsesCallerIdentity(t *testing.T) {
	router, deps := newTestRouter(t)

	resp := doRequest(router, http.MethodGet, "/api/trail", "", userHeaders("42"))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if len(deps.trails.userIDs) != 1 || deps.trails.userIDs[0] != 42 {
		t.Fatalf("unexpected user ids %v", deps.trails.userIDs)
	}

	var body map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if _, ok := body["runs"]; !ok {
		t.Fatalf("expected runs in body: %s", resp.Body.String())
	}
}

func TestCreateTrailConflict(t *testing.T) {
	router, deps := newTestRouter(t)
	deps.trails.err = traildomain.ErrTrailExists

	resp := doRequest(router, http.MethodPost, "/api/trail/org/10/trail", "", userHeaders("42"))
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", resp.Code)
	}
	if payload := decodeError(t, resp); payload.Type != "conflict" {
		t.Fatalf("unexpected error type %q", payload.Type)
	}
}

func TestCreateTrailCreated(t *testing.T) {
	router, _ := newTestRouter(t)

	resp := doRequest(router, http.MethodPost, "/api/trail/org/10/trail", "", userHeaders("42"))
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", resp.Code)
	}
}

func TestTrailMutationsMapNotFound(t *testing.T) {
	router, deps := newTestRouter(t)
	deps.trails.err = traildomain.ErrCourseNotFound

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/trail/add_course/20"},
		{http.MethodDelete, "/api/trail/remove_course/20"},
		{http.MethodPost, "/api/trail/add_activity/course/20/activity/30"},
	}
	for _, p := range paths {
		resp := doRequest(router, p.method, p.path, "", userHeaders("42"))
		if resp.Code != http.StatusNotFound {
			t.Fatalf("%s %s: expected status 404, got %d", p.method, p.path, resp.Code)
		}
	}
}

func TestInvalidPathIDIsValidationError(t *testing.T) {
	router, deps := newTestRouter(t)

	resp := doRequest(router, http.MethodPost, "/api/trail/add_course/abc", "", userHeaders("42"))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
	payload := decodeError(t, resp)
	if len(payload.Errors) != 1 || payload.Errors[0].Field != "course_id" {
		t.Fatalf("unexpected validation errors %+v", payload.Errors)
	}

	resp = doRequest(router, http.MethodGet, "/api/payments/0/config", "", userHeaders("42"))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
	if len(deps.payments.actors) != 0 {
		t.Fatalf("payments service should not be called")
	}
}

func TestPaymentsRoutesPassSubject(t *testing.T) {
	router, deps := newTestRouter(t)

	resp := doRequest(router, http.MethodPost, "/api/payments/10/config?provider=stripe", "", userHeaders("42"))
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", resp.Code)
	}
	resp = doRequest(router, http.MethodGet, "/api/payments/10/config", "", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	resp = doRequest(router, http.MethodPut, "/api/payments/10/config", `{"provider":"stripe","provider_config":{"a":1}}`, map[string]string{HeaderActorType: "system"})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	resp = doRequest(router, http.MethodDelete, "/api/payments/10/config", "", userHeaders("42"))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}

	want := []string{"user:42", "anonymous", "system", "user:42"}
	if len(deps.payments.actors) != len(want) {
		t.Fatalf("unexpected actors %v", deps.payments.actors)
	}
	for i := range want {
		if deps.payments.actors[i] != want[i] {
			t.Fatalf("call %d: expected actor %q, got %q", i, want[i], deps.payments.actors[i])
		}
	}
}

func TestPaymentsErrorsMapToStatus(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{paymentsconfigdomain.ErrOrganizationNotFound, http.StatusNotFound},
		{authorization.ErrForbidden, http.StatusForbidden},
		{paymentsconfigdomain.ErrAlreadyExists, http.StatusConflict},
		{paymentsconfigdomain.ErrInvalidProvider, http.StatusBadRequest},
	}

	for _, tc := range cases {
		router, deps := newTestRouter(t)
		deps.payments.err = tc.err

		resp := doRequest(router, http.MethodPost, "/api/payments/10/config?provider=stripe", "", userHeaders("42"))
		if resp.Code != tc.status {
			t.Fatalf("%v: expected status %d, got %d", tc.err, tc.status, resp.Code)
		}
	}
}

func TestUpdatePaymentsConfigRejectsMalformedBody(t *testing.T) {
	router, deps := newTestRouter(t)

	resp := doRequest(router, http.MethodPut, "/api/payments/10/config", `{"provider":`, userHeaders("42"))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
	if len(deps.payments.actors) != 0 {
		t.Fatalf("payments service should not be called")
	}
}

func TestCreateCourseAuthorizesInOrganization(t *testing.T) {
	router, deps := newTestRouter(t)

	resp := doRequest(router, http.MethodPost, "/api/orgs/10/courses", `{"name":"Go 201"}`, userHeaders("42"))
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", resp.Code, resp.Body.String())
	}
	if len(deps.authz.calls) != 1 {
		t.Fatalf("expected one authorization call, got %d", len(deps.authz.calls))
	}
	call := deps.authz.calls[0]
	if call.actor != "user:42" || call.orgUUID != "org-uuid-10" || call.object != authorization.ObjectCourse || call.action != authorization.ActionCreate {
		t.Fatalf("unexpected authorization call %+v", call)
	}
}

func TestCreateCourseForbidden(t *testing.T) {
	router, deps := newTestRouter(t)
	deps.authz.deny = true

	resp := doRequest(router, http.MethodPost, "/api/orgs/10/courses", `{"name":"Go 201"}`, userHeaders("42"))
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", resp.Code)
	}
}

func TestCreateCourseUnknownOrganization(t *testing.T) {
	router, deps := newTestRouter(t)

	resp := doRequest(router, http.MethodPost, "/api/orgs/11/courses", `{"name":"Go 201"}`, userHeaders("42"))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", resp.Code)
	}
	if len(deps.authz.calls) != 0 {
		t.Fatalf("authorization should not run for a missing organization")
	}
}

func TestGetCourseVisibility(t *testing.T) {
	router, deps := newTestRouter(t)
	deps.authz.deny = true

	resp := doRequest(router, http.MethodGet, "/api/courses/20", "", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("public course: expected status 200, got %d", resp.Code)
	}

	resp = doRequest(router, http.MethodGet, "/api/courses/21", "", nil)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("private course: expected status 403, got %d", resp.Code)
	}
	if len(deps.authz.calls) != 1 || deps.authz.calls[0].actor != authorization.ActorAnonymous {
		t.Fatalf("unexpected authorization calls %+v", deps.authz.calls)
	}

	resp = doRequest(router, http.MethodGet, "/api/courses/404", "", nil)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("missing course: expected status 404, got %d", resp.Code)
	}
}

func TestCreateOrganizationRequiresUser(t *testing.T) {
	router, _ := newTestRouter(t)

	resp := doRequest(router, http.MethodPost, "/api/orgs", `{"name":"Acme"}`, nil)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", resp.Code)
	}

	resp = doRequest(router, http.MethodPost, "/api/orgs", `{"name":"Acme"}`, userHeaders("42"))
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", resp.Code)
	}

	resp = doRequest(router, http.MethodPost, "/api/orgs", `{"name":" "}`, userHeaders("42"))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
}

func TestAddMemberValidatesUserID(t *testing.T) {
	router, _ := newTestRouter(t)

	resp := doRequest(router, http.MethodPost, "/api/orgs/10/members", `{"user_id":"x","role":"MEMBER"}`, userHeaders("42"))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}

	resp = doRequest(router, http.MethodPost, "/api/orgs/10/members", `{"user_id":"77","role":"MEMBER"}`, userHeaders("42"))
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", resp.Code)
	}
}

func TestCollectionRoutesPassSubject(t *testing.T) {
	router, deps := newTestRouter(t)

	resp := doRequest(router, http.MethodPost, "/api/orgs/10/collections", `{"name":"Backend","public":true,"courses":["20","21"]}`, userHeaders("42"))
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d (%s)", resp.Code, resp.Body.String())
	}
	resp = doRequest(router, http.MethodGet, "/api/orgs/10/collections?page_size=5&page_token=abc", "", nil)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	resp = doRequest(router, http.MethodGet, "/api/collections/collection_1", "", map[string]string{HeaderActorType: "system"})
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}
	resp = doRequest(router, http.MethodDelete, "/api/collections/collection_1", "", userHeaders("42"))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.Code)
	}

	want := []string{"user:42", "anonymous", "system", "user:42"}
	if len(deps.collections.actors) != len(want) {
		t.Fatalf("unexpected actors %v", deps.collections.actors)
	}
	for i := range want {
		if deps.collections.actors[i] != want[i] {
			t.Fatalf("call %d: expected actor %q, got %q", i, want[i], deps.collections.actors[i])
		}
	}

	req := deps.collections.requests[0]
	if req.Name != "Backend" || !req.Public || len(req.CourseIDs) != 2 || req.CourseIDs[1] != 21 {
		t.Fatalf("unexpected create request %+v", req)
	}
	list := deps.collections.lists[0]
	if list.PageSize != 5 || list.PageToken != "abc" {
		t.Fatalf("unexpected list request %+v", list)
	}
}

func TestCollectionRoutesRejectBadInput(t *testing.T) {
	router, deps := newTestRouter(t)

	resp := doRequest(router, http.MethodPost, "/api/orgs/10/collections", `{"name":`, userHeaders("42"))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
	resp = doRequest(router, http.MethodGet, "/api/orgs/10/collections?page_size=-1", "", nil)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
	resp = doRequest(router, http.MethodGet, "/api/orgs/abc/collections", "", nil)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
	if len(deps.collections.actors) != 0 {
		t.Fatalf("service should not be called, got %v", deps.collections.actors)
	}
}

func TestCollectionErrorsMapToStatus(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{collectiondomain.ErrNotFound, http.StatusNotFound},
		{collectiondomain.ErrOrganizationNotFound, http.StatusNotFound},
		{authorization.ErrForbidden, http.StatusForbidden},
		{collectiondomain.ErrInvalidName, http.StatusBadRequest},
	}

	for _, tc := range cases {
		router, deps := newTestRouter(t)
		deps.collections.err = tc.err

		resp := doRequest(router, http.MethodGet, "/api/collections/collection_1", "", nil)
		if resp.Code != tc.status {
			t.Fatalf("%v: expected status %d, got %d", tc.err, tc.status, resp.Code)
		}
	}

	_, payload := mapError(collectiondomain.ErrNotFound)
	if payload.Message != "collection not found" {
		t.Fatalf("unexpected message %q", payload.Message)
	}
}
