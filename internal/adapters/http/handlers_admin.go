package web

import (
	"bytes"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"outreach/internal/adapters/export"
	eventStore "outreach/internal/adapters/storage/event"
	milestoneStore "outreach/internal/adapters/storage/milestone"
	"outreach/internal/application/listutil"
	"outreach/internal/application/orchestrators"
	"outreach/internal/application/projections"
	"outreach/internal/domain/donation"
	"outreach/internal/domain/event"
	"outreach/internal/domain/user"
)

// milestoneManager joins the catalog and award stores for the milestone orchestrators.
type milestoneManager struct {
	milestoneStore.Store
	milestoneStore.UserMilestoneStore
}

func milestoneDeps() orchestrators.ManageMilestonesDeps {
	return orchestrators.ManageMilestonesDeps{
		MilestoneStore: milestoneManager{stores.MilestoneStore, stores.UserMilestoneStore},
		Now:            timeNow,
	}
}

func eventDeps() orchestrators.ManageEventsDeps {
	return orchestrators.ManageEventsDeps{
		TemplateStore:   stores.TemplateStore,
		OccurrenceStore: stores.OccurrenceStore,
		Location:        formLocation,
	}
}

func donationDeps() orchestrators.RecordDonationDeps {
	return orchestrators.RecordDonationDeps{
		DonationStore:    stores.DonationStore,
		AnonymousDonorID: anonymousDonorID,
		Now:              timeNow,
	}
}

// optionalID reads {id} from the path; zero means the route creates a new record.
func optionalID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id
}

// formID parses a numeric form field, zero when absent or malformed.
func formID(r *http.Request, key string) int64 {
	id, _ := strconv.ParseInt(r.FormValue(key), 10, 64)
	return id
}

func parseForm(w http.ResponseWriter, r *http.Request) bool {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form submission", http.StatusBadRequest)
		return false
	}
	return true
}

// handleAdminDashboard handles GET /admin-dashboard
func handleAdminDashboard(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}
	result, err := projections.QueryGetAdminDashboard(r.Context(),
		projections.GetDashboardDeps{Store: stores.DashboardStore}, timeNow())
	if err != nil {
		internalError(w, err)
		return
	}
	respond(w, r, http.StatusOK, "admin_dashboard.html", result)
}

// --- Users ---

// handleManageUsers handles GET /manage-users
func handleManageUsers(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}
	result, err := projections.QueryListUsers(r.Context(), listutil.ParseListParams(r.URL.Query()), stores.UserStore)
	if err != nil {
		internalError(w, err)
		return
	}
	respond(w, r, http.StatusOK, "manage_users.html", result)
}

// userFormView backs the admin create/edit user page.
type userFormView struct {
	Action  string
	IsNew   bool
	Profile projections.GetUserProfileResult
	Error   string
}

// handleManageUserNew handles GET (form) and POST (create) for /manage-users/new
func handleManageUserNew(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}
	v := userFormView{Action: "/manage-users/new", IsNew: true}
	v.Profile.User.Role = user.RoleParticipant

	switch r.Method {
	case http.MethodGet:
		respond(w, r, http.StatusOK, "manage_user_form.html", v)
	case http.MethodPost:
		if !parseForm(w, r) {
			return
		}
		input := orchestrators.CreateAccountInput{
			ProfileInput: profileFromForm(r),
			Password:     r.FormValue("password"),
			Role:         r.FormValue("role"),
		}
		id, err := orchestrators.ExecuteCreateAccount(r.Context(), input, orchestrators.CreateAccountDeps{
			UserStore: stores.UserStore,
			Now:       timeNow,
		})
		if err != nil {
			msg, ok := userMessage(err)
			if !ok {
				internalError(w, err)
				return
			}
			v.Error = msg
			v.Profile.User = user.User{
				Email:     input.Email,
				FirstName: input.FirstName,
				LastName:  input.LastName,
				Role:      input.Role,
			}
			respond(w, r, http.StatusBadRequest, "manage_user_form.html", v)
			return
		}
		finishAction(w, r, nil, "/manage-users", "User created", http.StatusCreated, map[string]int64{"id": id})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// handleManageUserEdit handles GET /manage-users/{id}/edit
func handleManageUserEdit(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}
	id, ok := pathID(r, "id")
	if !ok {
		http.NotFound(w, r)
		return
	}
	profile, err := projections.QueryGetUserProfile(r.Context(), projections.GetUserProfileQuery{UserID: id},
		projections.GetUserProfileDeps{
			UserStore:          stores.UserStore,
			UserMilestoneStore: stores.UserMilestoneStore,
			MilestoneStore:     stores.MilestoneStore,
			RegistrationStore:  stores.RegistrationStore,
		})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.NotFound(w, r)
			return
		}
		readUnavailable(w, r, "/manage-users", "user", err)
		return
	}
	respond(w, r, http.StatusOK, "manage_user_form.html", userFormView{
		Action:  fmt.Sprintf("/manage-users/%d/update", id),
		Profile: profile,
	})
}

// handleManageUserUpdate handles POST /manage-users/{id}/update
func handleManageUserUpdate(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireAdmin(w, r)
	if !ok {
		return
	}
	id, _ := pathID(r, "id")
	if !parseForm(w, r) {
		return
	}
	u, err := orchestrators.ExecuteUpdateAccount(r.Context(), orchestrators.UpdateAccountInput{
		UserID:       id,
		Actor:        sess.Identity(),
		ProfileInput: profileFromForm(r),
		Role:         r.FormValue("role"),
		Password:     r.FormValue("password"),
	}, orchestrators.UpdateAccountDeps{UserStore: stores.UserStore})
	finishAction(w, r, err, fmt.Sprintf("/manage-users/%d/edit", id), "User updated", http.StatusOK, u)
}

// handleManageUserDelete handles POST /manage-users/{id}/delete
func handleManageUserDelete(w http.ResponseWriter, r *http.Request) {
	sess, ok := requireAdmin(w, r)
	if !ok {
		return
	}
	id, _ := pathID(r, "id")
	err := orchestrators.ExecuteDeleteUser(r.Context(), orchestrators.DeleteUserInput{
		UserID: id,
		Actor:  sess.Identity(),
	}, orchestrators.UpdateAccountDeps{UserStore: stores.UserStore})
	if err == nil {
		sessions.DeleteUser(id)
	}
	finishAction(w, r, err, "/manage-users", "User deleted", http.StatusOK, map[string]int64{"id": id})
}

// handleManageUserMilestoneAdd handles POST /manage-users/{id}/milestones/add
func handleManageUserMilestoneAdd(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}
	id, _ := pathID(r, "id")
	if !parseForm(w, r) {
		return
	}
	input := orchestrators.AwardMilestoneInput{UserID: id, MilestoneID: formID(r, "milestone_id")}
	err := orchestrators.ExecuteAwardMilestone(r.Context(), input, milestoneDeps())
	finishAction(w, r, err, fmt.Sprintf("/manage-users/%d/edit", id), "Milestone awarded", http.StatusCreated, input)
}

// handleManageUserMilestoneDelete handles POST /manage-users/{id}/milestones/{milestone_id}/delete
func handleManageUserMilestoneDelete(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}
	id, _ := pathID(r, "id")
	milestoneID, _ := pathID(r, "milestone_id")
	input := orchestrators.AwardMilestoneInput{UserID: id, MilestoneID: milestoneID}
	err := orchestrators.ExecuteRevokeMilestone(r.Context(), input, milestoneDeps())
	finishAction(w, r, err, fmt.Sprintf("/manage-users/%d/edit", id), "Milestone removed", http.StatusOK, input)
}

// --- Event templates ---

// handleManageEvents handles GET /manage-events
func handleManageEvents(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}
	result, err := projections.QueryListTemplates(r.Context(), listutil.ParseListParams(r.URL.Query()), stores.TemplateStore)
	if err != nil {
		internalError(w, err)
		return
	}
	respond(w, r, http.StatusOK, "manage_events.html", result)
}

// handleManageEventSave handles POST /manage-events/new and /manage-events/{id}/update
func handleManageEventSave(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}
	if !parseForm(w, r) {
		return
	}
	input := orchestrators.TemplateInput{
		ID:                optionalID(r),
		Name:              r.FormValue("name"),
		Type:              r.FormValue("type"),
		Description:       r.FormValue("description"),
		RecurrencePattern: r.FormValue("recurrence_pattern"),
		DefaultCapacity:   r.FormValue("default_capacity"),
	}
	id, err := orchestrators.ExecuteSaveTemplate(r.Context(), input, eventDeps())
	status, msg := http.StatusOK, "Event updated"
	if input.ID == 0 {
		status, msg = http.StatusCreated, "Event created"
	}
	finishAction(w, r, err, "/manage-events", msg, status, map[string]int64{"id": id})
}

// handleManageEventDelete handles POST /manage-events/{id}/delete
func handleManageEventDelete(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}
	id, _ := pathID(r, "id")
	err := orchestrators.ExecuteDeleteTemplate(r.Context(), id, eventDeps())
	finishAction(w, r, err, "/manage-events", "Event deleted", http.StatusOK, map[string]int64{"id": id})
}

// --- Event occurrences ---

// occurrencesView is the occurrence list plus the templates for the create form.
type occurrencesView struct {
	projections.ListResult[eventStore.OccurrenceRow]
	Templates []event.Template
}

// handleManageOccurrences handles GET /manage-event-occurrences
func handleManageOccurrences(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}
	result, err := projections.QueryListOccurrences(r.Context(), listutil.ParseListParams(r.URL.Query()), stores.OccurrenceStore)
	if err != nil {
		internalError(w, err)
		return
	}
	templates, err := stores.TemplateStore.ListAllTemplates(r.Context())
	if err != nil {
		result.Errors = append(result.Errors, projections.ReadFailed("event templates", err))
	}
	respond(w, r, http.StatusOK, "manage_occurrences.html", occurrencesView{ListResult: result, Templates: templates})
}

// handleManageOccurrenceSave handles POST /manage-event-occurrences/new and .../{id}/update
func handleManageOccurrenceSave(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}
	if !parseForm(w, r) {
		return
	}
	input := orchestrators.OccurrenceInput{
		ID:                   optionalID(r),
		TemplateID:           formID(r, "template_id"),
		Name:                 r.FormValue("name"),
		StartAt:              r.FormValue("start_at"),
		EndAt:                r.FormValue("end_at"),
		Location:             r.FormValue("location"),
		Capacity:             r.FormValue("capacity"),
		RegistrationDeadline: r.FormValue("registration_deadline"),
	}
	id, err := orchestrators.ExecuteSaveOccurrence(r.Context(), input, eventDeps())
	status, msg := http.StatusOK, "Occurrence updated"
	if input.ID == 0 {
		status, msg = http.StatusCreated, "Occurrence created"
	}
	finishAction(w, r, err, "/manage-event-occurrences", msg, status, map[string]int64{"id": id})
}

// handleManageOccurrenceDelete handles POST /manage-event-occurrences/{id}/delete
func handleManageOccurrenceDelete(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}
	id, _ := pathID(r, "id")
	err := orchestrators.ExecuteDeleteOccurrence(r.Context(), id, eventDeps())
	finishAction(w, r, err, "/manage-event-occurrences", "Occurrence deleted", http.StatusOK, map[string]int64{"id": id})
}

// --- Registrations ---

// handleManageRegistrations handles GET /manage-registrations
func handleManageRegistrations(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}
	result, err := projections.QueryListRegistrations(r.Context(), listutil.ParseListParams(r.URL.Query()), stores.RegistrationStore)
	if err != nil {
		internalError(w, err)
		return
	}
	respond(w, r, http.StatusOK, "manage_registrations.html", result)
}

// handleManageRegistrationAttendance handles POST /manage-registrations/{id}/attendance
func handleManageRegistrationAttendance(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}
	id, _ := pathID(r, "id")
	err := orchestrators.ExecuteMarkAttendance(r.Context(), orchestrators.MarkAttendanceInput{RegistrationID: id},
		orchestrators.MarkAttendanceDeps{RegistrationStore: stores.RegistrationStore, Now: timeNow})
	finishAction(w, r, err, "/manage-registrations", "Attendance recorded", http.StatusOK, map[string]int64{"id": id})
}

// handleManageRegistrationDelete handles POST /manage-registrations/{id}/delete
func handleManageRegistrationDelete(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}
	id, _ := pathID(r, "id")
	err := orchestrators.ExecuteDeleteRegistration(r.Context(), id, stores.RegistrationStore)
	finishAction(w, r, err, "/manage-registrations", "Registration deleted", http.StatusOK, map[string]int64{"id": id})
}

// --- Surveys ---

// handleManageSurveys handles GET /manage-surveys
func handleManageSurveys(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}
	result, err := projections.QueryListSurveys(r.Context(), listutil.ParseListParams(r.URL.Query()), stores.SurveyStore)
	if err != nil {
		internalError(w, err)
		return
	}
	respond(w, r, http.StatusOK, "manage_surveys.html", result)
}

// handleManageSurveyDelete handles POST /manage-surveys/{id}/delete
func handleManageSurveyDelete(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}
	id, _ := pathID(r, "id")
	err := orchestrators.ExecuteDeleteSurvey(r.Context(), id, stores.SurveyStore)
	finishAction(w, r, err, "/manage-surveys", "Survey deleted", http.StatusOK, map[string]int64{"id": id})
}

// --- Milestones ---

// handleManageMilestones handles GET /manage-milestones
func handleManageMilestones(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}
	result, err := projections.QueryListMilestones(r.Context(), listutil.ParseListParams(r.URL.Query()), stores.MilestoneStore)
	if err != nil {
		internalError(w, err)
		return
	}
	respond(w, r, http.StatusOK, "manage_milestones.html", result)
}

// handleManageMilestoneNew handles POST /manage-milestones/new
func handleManageMilestoneNew(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}
	if !parseForm(w, r) {
		return
	}
	id, err := orchestrators.ExecuteCreateMilestone(r.Context(), r.FormValue("title"), milestoneDeps())
	finishAction(w, r, err, "/manage-milestones", "Milestone created", http.StatusCreated, map[string]int64{"id": id})
}

// handleManageMilestoneDelete handles POST /manage-milestones/{id}/delete
func handleManageMilestoneDelete(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}
	id, _ := pathID(r, "id")
	err := orchestrators.ExecuteDeleteMilestone(r.Context(), id, milestoneDeps())
	finishAction(w, r, err, "/manage-milestones", "Milestone deleted", http.StatusOK, map[string]int64{"id": id})
}

// --- Donations ---

// donationsView is the donation list plus the donor picker for the create form.
type donationsView struct {
	projections.ListResult[donation.Donation]
	Donors []user.User
}

// handleManageDonations handles GET /manage-donations
func handleManageDonations(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}
	result, err := projections.QueryListDonations(r.Context(), listutil.ParseListParams(r.URL.Query()), stores.DonationStore)
	if err != nil {
		internalError(w, err)
		return
	}
	donors, err := stores.UserStore.ListAll(r.Context())
	if err != nil {
		result.Errors = append(result.Errors, projections.ReadFailed("donors", err))
	}
	respond(w, r, http.StatusOK, "manage_donations.html", donationsView{ListResult: result, Donors: donors})
}

// handleManageDonationNew handles POST /manage-donations/new.
// An empty donor records the gift against the anonymous donor.
func handleManageDonationNew(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}
	if !parseForm(w, r) {
		return
	}
	d, err := orchestrators.ExecuteRecordDonation(r.Context(), orchestrators.RecordDonationInput{
		UserID:    formID(r, "user_id"),
		Amount:    r.FormValue("amount"),
		DonatedOn: r.FormValue("donated_on"),
	}, donationDeps())
	finishAction(w, r, err, "/manage-donations", "Donation recorded", http.StatusCreated, d)
}

// handleManageDonationDelete handles POST /manage-donations/{id}/delete
func handleManageDonationDelete(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}
	id, _ := pathID(r, "id")
	err := orchestrators.ExecuteDeleteDonation(r.Context(), id, donationDeps())
	finishAction(w, r, err, "/manage-donations", "Donation deleted", http.StatusOK, map[string]int64{"id": id})
}

// handleManageDonationsExport handles GET /manage-donations/export (XLSX download)
func handleManageDonationsExport(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireAdmin(w, r); !ok {
		return
	}
	donations, err := stores.DonationStore.ListAll(r.Context())
	if err != nil {
		readUnavailable(w, r, "/manage-donations", "donations", err)
		return
	}
	var buf bytes.Buffer
	if err := export.WriteDonations(&buf, donations); err != nil {
		internalError(w, err)
		return
	}
	w.Header().Set("Content-Type", export.ContentTypeXLSX)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.DonationsFilename(timeNow())))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	buf.WriteTo(w)
}
