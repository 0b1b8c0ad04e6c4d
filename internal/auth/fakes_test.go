package auth

import (
	"net/http"
	"time"

	"github.com/gin-contrib/sessions"

	"github.com/yourusername/hostel-allotment/internal/allotment"
	"github.com/yourusername/hostel-allotment/internal/store"
)

type fakeRepo struct {
	admins  map[string]store.Admin
	groups  map[string]store.Group
	process allotment.ProcessStatus
	updates int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		admins: make(map[string]store.Admin),
		groups: make(map[string]store.Group),
		process: allotment.ProcessStatus{
			ProcessStatus: "OPEN",
			ShowMessage:   allotment.MessageHide,
			LoginStatus:   allotment.LoginEnabled,
		},
	}
}

func (r *fakeRepo) AdminByCredentials(adminID, passwordHash string) (*store.Admin, error) {
	admin, ok := r.admins[adminID]
	if !ok || admin.Password != passwordHash {
		return nil, nil
	}
	return &admin, nil
}

func (r *fakeRepo) AdminByID(adminID string) (*store.Admin, error) {
	admin, ok := r.admins[adminID]
	if !ok {
		return nil, nil
	}
	return &admin, nil
}

func (r *fakeRepo) GroupByCredentials(groupID, passwordHash string) (*store.Group, error) {
	group, ok := r.groups[groupID]
	if !ok || group.Password != passwordHash {
		return nil, nil
	}
	return &group, nil
}

func (r *fakeRepo) GroupByID(groupID string) (*store.Group, error) {
	group, ok := r.groups[groupID]
	if !ok {
		return nil, nil
	}
	return &group, nil
}

func (r *fakeRepo) UpdateLastLogin(groupID string, at time.Time) error {
	r.updates++
	group, ok := r.groups[groupID]
	if !ok {
		return nil
	}
	group.LastLogin = at.Unix()
	r.groups[groupID] = group
	return nil
}

func (r *fakeRepo) GroupAllotmentStatus(groupID string) (allotment.Status, error) {
	return allotment.Status(r.groups[groupID].AllotmentStatus), nil
}

func (r *fakeRepo) SetGroupAllotmentStatus(groupID string, status allotment.Status) error {
	group := r.groups[groupID]
	group.AllotmentStatus = string(status)
	r.groups[groupID] = group
	return nil
}

func (r *fakeRepo) AllotmentProcess() (*allotment.ProcessStatus, error) {
	status := r.process
	return &status, nil
}

func (r *fakeRepo) UpdateAllotmentProcess(status allotment.ProcessStatus) error {
	r.process = status
	return nil
}

func (r *fakeRepo) LoginStatus() (string, error) {
	return r.process.LoginStatus, nil
}

func (r *fakeRepo) LoginMessage() (string, error) {
	return r.process.LoginMessage, nil
}

type fakeSession struct {
	values  map[interface{}]interface{}
	options *sessions.Options
}

func newFakeSession() *fakeSession {
	return &fakeSession{values: make(map[interface{}]interface{})}
}

func (s *fakeSession) Get(key interface{}) interface{}      { return s.values[key] }
func (s *fakeSession) Set(key interface{}, val interface{}) { s.values[key] = val }
func (s *fakeSession) Delete(key interface{})               { delete(s.values, key) }
func (s *fakeSession) Clear()                               { s.values = make(map[interface{}]interface{}) }
func (s *fakeSession) Options(opts sessions.Options)        { s.options = &opts }

var testCookie = sessions.Options{
	Path:     "/",
	Domain:   "haa.example.edu",
	Secure:   false,
	HttpOnly: true,
	SameSite: http.SameSiteStrictMode,
}

func testOptions() Options {
	return Options{
		PasswordScheme: "sha512",
		LoginCooldown:  900 * time.Second,
		SessionTimeout: 900 * time.Second,
		LogoutBackdate: time.Hour,
		CaptchaAfter:   3,
		Cookie:         testCookie,
	}
}
