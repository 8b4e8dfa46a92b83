package httpx

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/msccenter/hrm-ui/internal/data"
	domainauth "github.com/msccenter/hrm-ui/internal/domain/auth"
	"github.com/msccenter/hrm-ui/internal/domain/model"
	apperrors "github.com/msccenter/hrm-ui/internal/errors"
	"github.com/msccenter/hrm-ui/internal/http/validation"
)

// usersListBasePath is the canonical path for the user admin list.
const usersListBasePath = "/users"

// usersFilter holds the parsed list filters for the user admin list.
type usersFilter struct {
	Status string
	Search string
	Sort   string
	Dir    string
}

// listOptions converts the filter into repository list options. Invalid
// status values fall back to no status filter.
func (f usersFilter) listOptions() model.UsersListOptions {
	opts := model.UsersListOptions{Sort: f.Sort, Dir: f.Dir}
	if status := model.UserStatus(f.Status); status.Valid() {
		opts.Status = &status
	}
	if f.Search != "" {
		q := f.Search
		opts.Q = &q
	}
	return opts
}

func parseUsersFilter(q url.Values) (usersFilter, error) {
	f := usersFilter{
		Status: strings.TrimSpace(q.Get("status")),
		Search: strings.TrimSpace(q.Get("q")),
	}
	// The repo rejects unknown sort columns, so the raw values are safe to
	// pass through.
	f.Sort, f.Dir = ParseSortParam(q, "sort", "dir")
	return f, nil
}

// UsersList renders the user administration list with status filtering and
// substring search.
// GET /users?status=<pending|active|disabled>&q=<search>.
func (h *UIHandlers) UsersList(w http.ResponseWriter, r *http.Request) {
	HandleList(ListHandlerOpts[*model.User, usersFilter]{
		Handler: h,
		W:       w,
		R:       r,
		FilteredFetcher: func(ctx context.Context, f usersFilter, pg pageOpts) ([]*model.User, error) {
			opts := f.listOptions()
			opts.Limit, opts.Offset = pg.LimitAndOffset()
			return h.Users.List(ctx, opts)
		},
		FilterParser: parseUsersFilter,
		EnrichData: func(b *TemplateDataBuilder, _ []*model.User, f usersFilter) {
			b.With("StatusFilter", f.Status).
				With("Search", f.Search).
				With("Roles", roleOptions()).
				With("Statuses", statusOptions())
		},
		BasePath:           usersListBasePath,
		PageMeta:           usersPageMeta(),
		ItemsKey:           "Users",
		ErrorMessage:       "Unable to load accounts.",
		ServiceAvailable:   func() bool { return h.Users != nil },
		UnavailableMessage: "User administration is not available right now.",
		UnavailableData: func(b *TemplateDataBuilder) {
			b.With("StatusFilter", "").
				With("Search", "").
				With("Roles", roleOptions()).
				With("Statuses", statusOptions())
		},
	})
}

// UserApprove activates a pending account.
// POST /users/{id}/approve.
func (h *UIHandlers) UserApprove(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.NotFound(w, r)
		return
	}

	user, err := h.Users.Approve(r.Context(), id)
	if err != nil {
		h.logger().ErrorContext(r.Context(), "user approval failed", "user_id", id, "error", err)
		triggerToast(w, "Could not approve the account. Please try again.", "error")
		w.WriteHeader(http.StatusUnprocessableEntity)
		return
	}

	triggerToast(w, user.FullName+" approved.", "success")
	HTMX(w).Redirect(usersListBasePath)
}

// UserSetRole changes an account's role.
// POST /users/{id}/role.
func (h *UIHandlers) UserSetRole(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		triggerToast(w, "Could not read the form.", "error")
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	role := domainauth.ParseRole(r.PostFormValue("role"))
	user, err := h.Users.SetRole(r.Context(), id, role)
	if err != nil {
		h.logger().ErrorContext(r.Context(), "role change failed", "user_id", id, "error", err)
		triggerToast(w, "Could not change the role. Please try again.", "error")
		w.WriteHeader(http.StatusUnprocessableEntity)
		return
	}

	triggerToast(w, user.FullName+" is now "+string(user.Role)+".", "success")
	HTMX(w).Redirect(usersListBasePath)
}

// UserSetStatus enables or disables an account.
// POST /users/{id}/status.
func (h *UIHandlers) UserSetStatus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.NotFound(w, r)
		return
	}
	if err := r.ParseForm(); err != nil {
		triggerToast(w, "Could not read the form.", "error")
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	status := model.UserStatus(r.PostFormValue("status"))
	if !status.Valid() {
		triggerToast(w, "Unknown account status.", "error")
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	user, err := h.Users.SetStatus(r.Context(), id, status)
	if err != nil {
		h.logger().ErrorContext(r.Context(), "status change failed", "user_id", id, "error", err)
		triggerToast(w, "Could not change the account status. Please try again.", "error")
		w.WriteHeader(http.StatusUnprocessableEntity)
		return
	}

	triggerToast(w, user.FullName+" is now "+string(user.Status)+".", "success")
	HTMX(w).Redirect(usersListBasePath)
}

// UserDelete removes an account.
// POST /users/{id}/delete.
func (h *UIHandlers) UserDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.NotFound(w, r)
		return
	}

	// Admins cannot delete themselves from the list.
	if session := GetSessionFromContext(r.Context()); session != nil && session.UserID == id {
		triggerToast(w, "You cannot delete your own account.", "error")
		w.WriteHeader(http.StatusUnprocessableEntity)
		return
	}

	deleted, err := h.Users.Delete(r.Context(), id)
	if err != nil {
		h.logger().ErrorContext(r.Context(), "user delete failed", "user_id", id, "error", err)
		mapped := apperrors.MapDBError(err)
		if apperrors.IsForeignKey(mapped) {
			var appErr *apperrors.AppError
			if errors.As(mapped, &appErr) {
				triggerToast(w, appErr.Message, "error")
				w.WriteHeader(http.StatusConflict)
				return
			}
		}
		triggerToast(w, "Could not delete the account. Please try again.", "error")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	if !deleted {
		h.NotFound(w, r)
		return
	}

	triggerToast(w, "Account deleted.", "success")
	HTMX(w).Redirect(usersListBasePath)
}

// UserNew renders the create-account form for admins.
// GET /users/new.
func (h *UIHandlers) UserNew(w http.ResponseWriter, r *http.Request) {
	data, _ := prepareFormFrame(FormFrameOpts{
		R:           r,
		Data:        map[string]any{"Roles": roleOptions()},
		DefaultMode: FormModeCreate,
		MetaForMode: userFormMeta,
	})
	h.renderDashboardPage(w, r, data)
}

// UserCreate creates an active account directly, skipping the approval queue.
// POST /users.
func (h *UIHandlers) UserCreate(w http.ResponseWriter, r *http.Request) {
	HandleForm(FormHandlerOpts[userCreateForm]{
		W:          w,
		R:          r,
		Mode:       FormModeCreate,
		Parser:     parseUserCreateForm,
		Service:    userFormService{users: h.Users},
		Renderer:   h.renderUserForm,
		SuccessURL: usersListBasePath,
		PageMeta:   userFormMeta(FormModeCreate),
		ExtraData:  map[string]any{"Roles": roleOptions()},
		HandleError: func(err error) (map[string]string, string) {
			if errors.Is(err, data.ErrUserEmailExists) {
				return map[string]string{"email": "An account with this email already exists."}, ""
			}
			if isValidationError(err) {
				return nil, capitalizeSentence(err.Error())
			}
			return nil, ""
		},
	})
}

// userCreateForm carries the parsed create-account form.
type userCreateForm struct {
	Req  *model.CreateUserRequest
	Role domainauth.Role
}

// userFormService adapts the user service to the generic form handler.
type userFormService struct {
	users UsersUIService
}

func (s userFormService) Create(ctx context.Context, req userCreateForm) (any, error) {
	return s.users.CreateActive(ctx, req.Req, req.Role)
}

func (s userFormService) Update(ctx context.Context, id string, req userCreateForm) (any, error) {
	return s.users.SetRole(ctx, id, req.Role)
}

// parseUserCreateForm parses and validates the create-account form.
func parseUserCreateForm(r *http.Request) (userCreateForm, map[string]string) {
	form := userCreateForm{Req: &model.CreateUserRequest{}}
	fieldErrors := map[string]string{}
	if err := r.ParseForm(); err != nil {
		fieldErrors["form"] = "Could not read the form."
		return form, fieldErrors
	}

	form.Req.FirstName = strings.TrimSpace(r.PostFormValue("first_name"))
	form.Req.LastName = strings.TrimSpace(r.PostFormValue("last_name"))
	form.Req.Email = strings.TrimSpace(r.PostFormValue("email"))
	form.Req.PhoneNumber = strings.TrimSpace(r.PostFormValue("phone_number"))
	form.Req.Password = r.PostFormValue("password")
	form.Role = domainauth.ParseRole(r.PostFormValue("role"))

	checks := map[string]string{
		"first_name": validation.Required("First name", 100)(form.Req.FirstName),
		"last_name":  validation.Required("Last name", 100)(form.Req.LastName),
		"email":      validation.Required("Email", 254)(form.Req.Email),
		"password":   validation.RequiredRange("Password", 8, 128)(form.Req.Password),
	}
	for field, msg := range checks {
		if msg != "" {
			fieldErrors[field] = msg
		}
	}

	if len(fieldErrors) == 0 {
		return form, nil
	}
	return form, fieldErrors
}

// renderUserForm renders the create-account form with the supplied data.
func (h *UIHandlers) renderUserForm(w http.ResponseWriter, r *http.Request, data map[string]any) {
	hydrated, _ := prepareFormFrame(FormFrameOpts{
		R:           r,
		Data:        data,
		DefaultMode: FormModeCreate,
		MetaForMode: userFormMeta,
	})
	if _, ok := hydrated["Roles"]; !ok {
		hydrated["Roles"] = roleOptions()
	}
	h.renderDashboardPage(w, r, hydrated)
}

func usersPageMeta() PageMeta {
	return PageMeta{Title: "Users - MSC HRM", PageTitle: "Users", CurrentPage: PageUsers}
}

func userFormMeta(mode FormMode) PageMeta {
	title := "New User"
	if mode == FormModeEdit {
		title = "Edit User"
	}
	return PageMeta{Title: title + " - MSC HRM", PageTitle: title, CurrentPage: PageUserForm}
}

func roleOptions() []string {
	return []string{
		string(domainauth.RoleStaff),
		string(domainauth.RoleManager),
		string(domainauth.RoleAdmin),
	}
}

func statusOptions() []string {
	return []string{
		string(model.UserStatusPending),
		string(model.UserStatusActive),
		string(model.UserStatusDisabled),
	}
}
