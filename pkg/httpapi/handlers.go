package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"netval/pkg/audit"
	"netval/pkg/check"
	"netval/pkg/model"
	"netval/pkg/parser"
	"netval/pkg/remediation"
	"netval/pkg/render"
	"netval/pkg/util"
	"netval/pkg/vault"
)

// localActor is the single local user netval runs as.
const localActor = "local"

// recordAudit writes one audit event through the process default logger.
// Audit failures are logged, never surfaced to the client.
func recordAudit(r *http.Request, projectID, device, operation, detail string, opErr error) {
	evt := audit.NewEvent(localActor, projectID, device, operation).WithDetail(detail)
	if opErr != nil {
		evt.WithError(opErr)
	} else {
		evt.WithSuccess()
	}
	evt.ClientIP = r.RemoteAddr
	if err := audit.Log(evt); err != nil {
		util.WithField("operation", operation).Warnf("audit log write failed: %v", err)
	}
}

// sshConnectProbeTimeout bounds the ssh-connect liveness route,
// independent of the fixed SSH per-command timeouts in pkg/sshpool.
const sshConnectProbeTimeout = 10 * time.Second

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	available := s.ai != nil && s.ai.Available(r.Context())
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":           "ok",
		"ollama_available": available,
	})
}

// decodeJSON reads and validates a JSON request body against req's
// `validate` struct tags.
func (s *Server) decodeJSON(r *http.Request, req interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		return util.NewValidationError("malformed request body: " + err.Error())
	}
	if err := s.validate.Struct(req); err != nil {
		return util.NewValidationError(err.Error())
	}
	return nil
}

// --- Projects ---------------------------------------------------------

type createProjectRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req createProjectRequest
	if err := s.decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	p := &model.Project{Name: req.Name, Description: req.Description}
	if err := s.store.CreateProject(p); err != nil {
		writeError(w, err)
		return
	}
	recordAudit(r, p.ID, "", "project_create", p.Name, nil)
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.store.ListProjects()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, projects)
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	p, err := s.store.GetProject(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	// Collect credential refs before the cascade removes the rows; the
	// vault entries must go with them.
	devices, err := s.store.ListDevices(id)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := s.store.DeleteProject(id); err != nil {
		writeError(w, err)
		return
	}
	for _, d := range devices {
		if d.CredentialRef == nil {
			continue
		}
		if err := s.vault.Delete(*d.CredentialRef); err != nil {
			util.WithField("device_id", d.ID).Warnf("revoking credential after project delete: %v", err)
		}
	}
	recordAudit(r, id, "", "project_delete", "", nil)
	w.WriteHeader(http.StatusNoContent)
}

// --- Devices ------------------------------------------------------------

type createDeviceRequest struct {
	Hostname     string  `json:"hostname" validate:"required"`
	Role         string  `json:"role" validate:"required"`
	Vendor       string  `json:"vendor"`
	Platform     string  `json:"platform"`
	ManagementIP string  `json:"management_ip"`
	CanvasX      float64 `json:"canvas_x"`
	CanvasY      float64 `json:"canvas_y"`
	Notes        string  `json:"notes"`
}

func (s *Server) handleCreateDevice(w http.ResponseWriter, r *http.Request) {
	var req createDeviceRequest
	if err := s.decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	role := model.DeviceRole(req.Role)
	if !role.Valid() {
		writeError(w, util.NewValidationError("unrecognized device role: "+req.Role))
		return
	}
	d := &model.Device{
		ProjectID:    chi.URLParam(r, "id"),
		Hostname:     req.Hostname,
		Role:         role,
		Vendor:       req.Vendor,
		Platform:     req.Platform,
		ManagementIP: req.ManagementIP,
		CanvasX:      req.CanvasX,
		CanvasY:      req.CanvasY,
		Notes:        req.Notes,
	}
	if err := s.store.CreateDevice(d); err != nil {
		writeError(w, err)
		return
	}
	recordAudit(r, d.ProjectID, d.Hostname, "device_create", string(d.Role), nil)
	writeJSON(w, http.StatusCreated, d)
}

func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := s.store.ListDevices(chi.URLParam(r, "project_id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, devices)
}

func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	d, err := s.store.GetDevice(chi.URLParam(r, "device_id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleDeleteDevice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	d, err := s.store.GetDevice(id)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.store.DeleteDevice(d.ProjectID, id); err != nil {
		writeError(w, err)
		return
	}
	if d.CredentialRef != nil {
		if err := s.vault.Delete(*d.CredentialRef); err != nil {
			util.WithField("device_id", id).Warnf("revoking credential after device delete: %v", err)
		}
	}
	recordAudit(r, d.ProjectID, d.Hostname, "device_delete", "", nil)
	w.WriteHeader(http.StatusNoContent)
}

// --- Links ----------------------------------------------------------------

type createLinkRequest struct {
	SourceDeviceID  string `json:"source_device_id" validate:"required"`
	SourceInterface string `json:"source_interface" validate:"required"`
	TargetDeviceID  string `json:"target_device_id" validate:"required"`
	TargetInterface string `json:"target_interface" validate:"required"`
	Medium          string `json:"medium"`
	VLANAllowList   []int  `json:"vlan_allow_list"`
}

func (s *Server) handleCreateLink(w http.ResponseWriter, r *http.Request) {
	var req createLinkRequest
	if err := s.decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	projectID := chi.URLParam(r, "id")

	src, err := s.store.GetDevice(req.SourceDeviceID)
	if err != nil {
		writeError(w, err)
		return
	}
	dst, err := s.store.GetDevice(req.TargetDeviceID)
	if err != nil {
		writeError(w, err)
		return
	}
	if src.ProjectID != projectID || dst.ProjectID != projectID {
		writeError(w, util.NewValidationError("both link endpoints must belong to the target project"))
		return
	}

	medium := model.LinkMedium(req.Medium)
	if medium == "" {
		medium = model.MediumEthernet
	}
	link := &model.Link{
		ProjectID:       projectID,
		SourceDeviceID:  req.SourceDeviceID,
		SourceInterface: req.SourceInterface,
		TargetDeviceID:  req.TargetDeviceID,
		TargetInterface: req.TargetInterface,
		Medium:          medium,
		VLANAllowList:   req.VLANAllowList,
		State:           model.LinkPending,
	}
	if err := s.store.CreateLink(link); err != nil {
		writeError(w, err)
		return
	}
	recordAudit(r, projectID, "", "link_create",
		fmt.Sprintf("%s/%s <-> %s/%s", src.Hostname, link.SourceInterface, dst.Hostname, link.TargetInterface), nil)
	writeJSON(w, http.StatusCreated, link)
}

func (s *Server) handleListLinks(w http.ResponseWriter, r *http.Request) {
	links, err := s.store.ListLinks(chi.URLParam(r, "project_id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, links)
}

func (s *Server) handleDeleteLink(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	projectID := r.URL.Query().Get("project_id")
	if projectID == "" {
		writeError(w, util.NewValidationError("project_id query parameter is required"))
		return
	}
	if err := s.store.DeleteLink(projectID, id); err != nil {
		writeError(w, err)
		return
	}
	recordAudit(r, projectID, "", "link_delete", id, nil)
	w.WriteHeader(http.StatusNoContent)
}

// --- Config upload / manual snapshots --------------------------------------

func (s *Server) handleUploadConfig(w http.ResponseWriter, r *http.Request) {
	deviceID := chi.URLParam(r, "id")
	device, err := s.store.GetDevice(deviceID)
	if err != nil {
		writeError(w, err)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, util.NewValidationError("missing multipart field \"file\": "+err.Error()))
		return
	}
	defer file.Close()
	raw, err := io.ReadAll(file)
	if err != nil {
		writeError(w, util.NewValidationError("reading upload: "+err.Error()))
		return
	}

	sub := parser.Parse(string(raw))

	ifaces := make([]*model.Interface, 0, len(sub.Interfaces))
	for _, p := range sub.Interfaces {
		ifaces = append(ifaces, parsedToInterface(deviceID, p))
	}
	if err := s.store.ReplaceInterfaces(deviceID, ifaces); err != nil {
		writeError(w, err)
		return
	}
	if err := s.store.SetDeviceVLANs(device.ProjectID, deviceID, sub.VLANs); err != nil {
		writeError(w, err)
		return
	}
	if err := s.store.ReplaceStaticRoutes(deviceID, sub.StaticRoutes); err != nil {
		writeError(w, err)
		return
	}

	snap := &model.ConfigSnapshot{
		DeviceID:   deviceID,
		RawConfig:  string(raw),
		ConfigHash: util.HashConfig(string(raw)),
		Source:     model.SourceUpload,
	}
	if err := s.store.CreateSnapshot(device.ProjectID, snap); err != nil {
		writeError(w, err)
		return
	}

	recordAudit(r, device.ProjectID, device.Hostname, "config_upload",
		fmt.Sprintf("%d bytes, %d parse warnings", len(raw), len(sub.Warnings)), nil)
	writeJSON(w, http.StatusOK, sub)
}

type storeConfigRequest struct {
	RawConfig string `json:"raw_config" validate:"required"`
}

func (s *Server) handleStoreConfig(w http.ResponseWriter, r *http.Request) {
	deviceID := chi.URLParam(r, "id")
	device, err := s.store.GetDevice(deviceID)
	if err != nil {
		writeError(w, err)
		return
	}
	var req storeConfigRequest
	if err := s.decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	snap := &model.ConfigSnapshot{
		DeviceID:   deviceID,
		RawConfig:  req.RawConfig,
		ConfigHash: util.HashConfig(req.RawConfig),
		Source:     model.SourceManual,
	}
	if err := s.store.CreateSnapshot(device.ProjectID, snap); err != nil {
		writeError(w, err)
		return
	}
	recordAudit(r, device.ProjectID, device.Hostname, "config_store", "manual snapshot", nil)
	writeJSON(w, http.StatusCreated, snap)
}

func (s *Server) handleLatestConfig(w http.ResponseWriter, r *http.Request) {
	snap, err := s.store.LatestSnapshot(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

// --- Validation / CLI generation -------------------------------------------

func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	job, err := s.manager.StartSimulation(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"job_id": job.ID})
}

func (s *Server) handleGenerateCLI(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "id")
	devices, err := s.store.ListDevices(projectID)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make(map[string]string, len(devices))
	for _, d := range devices {
		ifaces, err := s.store.ListInterfaces(d.ID)
		if err != nil {
			writeError(w, err)
			return
		}
		vlans, err := s.store.ListDeviceVLANs(d.ID)
		if err != nil {
			writeError(w, err)
			return
		}
		routes, err := s.store.ListStaticRoutes(d.ID)
		if err != nil {
			writeError(w, err)
			return
		}
		sub := deviceSubModel(d.Hostname, ifaces, vlans, routes)
		out[d.ID] = render.Render(sub)
	}
	writeJSON(w, http.StatusOK, out)
}

// --- Jobs -------------------------------------------------------------------

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	j, err := s.store.GetJob(chi.URLParam(r, "job_id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, j)
}

// --- SSH / credentials -------------------------------------------------------

type credentialsRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password"`
	KeyPath  string `json:"key_path"`
}

func (s *Server) handleSetCredentials(w http.ResponseWriter, r *http.Request) {
	deviceID := chi.URLParam(r, "id")
	device, err := s.store.GetDevice(deviceID)
	if err != nil {
		writeError(w, err)
		return
	}
	var req credentialsRequest
	if err := s.decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	ref, err := s.vault.Store(&vault.Material{Username: req.Username, Password: req.Password, KeyPath: req.KeyPath})
	if err != nil {
		writeError(w, err)
		return
	}
	device.CredentialRef = &ref
	if err := s.store.UpdateDevice(device); err != nil {
		writeError(w, err)
		return
	}
	// Detail carries the username only, never the secret material.
	recordAudit(r, device.ProjectID, device.Hostname, "credentials_set", req.Username, nil)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteCredentials(w http.ResponseWriter, r *http.Request) {
	deviceID := chi.URLParam(r, "id")
	device, err := s.store.GetDevice(deviceID)
	if err != nil {
		writeError(w, err)
		return
	}
	if device.CredentialRef != nil {
		if err := s.vault.Delete(*device.CredentialRef); err != nil {
			writeError(w, err)
			return
		}
		device.CredentialRef = nil
		if err := s.store.UpdateDevice(device); err != nil {
			writeError(w, err)
			return
		}
		recordAudit(r, device.ProjectID, device.Hostname, "credentials_delete", "", nil)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSSHConnect(w http.ResponseWriter, r *http.Request) {
	deviceID := chi.URLParam(r, "id")
	device, err := s.store.GetDevice(deviceID)
	if err != nil {
		writeError(w, err)
		return
	}
	if device.CredentialRef == nil {
		writeError(w, util.ErrDependencyMissing)
		return
	}
	creds, err := s.vault.Load(*device.CredentialRef)
	if err != nil {
		writeError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), sshConnectProbeTimeout)
	defer cancel()
	err = s.manager.Probe(ctx, device, creds)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"device_id": deviceID,
		"reachable": err == nil,
		"error":     errString(err),
	})
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	deviceID := chi.URLParam(r, "id")
	device, err := s.store.GetDevice(deviceID)
	if err != nil {
		writeError(w, err)
		return
	}
	job, err := s.manager.StartIngestion(r.Context(), device.ProjectID, deviceID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"job_id": job.ID})
}

// --- Remediation --------------------------------------------------------

func (s *Server) handleRemediate(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "id")
	jobs, err := s.store.ListJobs(projectID)
	if err != nil {
		writeError(w, err)
		return
	}
	var lastResult json.RawMessage
	for _, j := range jobs {
		if j.Kind == model.KindSimulation && j.Status == model.JobComplete && len(j.Result) > 0 {
			lastResult = j.Result
			break
		}
	}
	if lastResult == nil {
		writeError(w, util.NewDependencyError(projectID, "job", "a completed simulation"))
		return
	}
	var auditResult check.AuditResult
	if err := json.Unmarshal(lastResult, &auditResult); err != nil {
		writeError(w, fmt.Errorf("remediate: decoding last audit result: %w", err))
		return
	}
	plan := remediation.Plan(projectID, &auditResult)
	if err := s.store.CreatePlan(plan); err != nil {
		writeError(w, err)
		return
	}
	recordAudit(r, projectID, "", "remediation_plan", fmt.Sprintf("%d items", len(plan.Items)), nil)
	writeJSON(w, http.StatusCreated, plan)
}

type applyRequest struct {
	PlanID  string `json:"plan_id" validate:"required"`
	Confirm bool   `json:"confirm"`
}

func (s *Server) handleApply(w http.ResponseWriter, r *http.Request) {
	var req applyRequest
	if err := s.decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if !req.Confirm {
		writeError(w, util.ErrConfirmationRequired)
		return
	}

	plan, err := s.store.GetPlan(req.PlanID)
	if err != nil {
		writeError(w, err)
		return
	}
	if plan.Status == model.PlanPending {
		for _, item := range plan.Items {
			if err := s.store.SetItemApproval(plan.ID, item.ID, true); err != nil {
				writeError(w, err)
				return
			}
		}
		if err := s.store.TransitionPlan(plan.ID, model.PlanApproved); err != nil {
			writeError(w, err)
			return
		}
		plan, err = s.store.GetPlan(req.PlanID)
		if err != nil {
			writeError(w, err)
			return
		}
	}

	projectID := chi.URLParam(r, "id")
	job, err := s.manager.StartRemediation(r.Context(), projectID, plan)
	if err != nil {
		writeError(w, err)
		return
	}
	recordAudit(r, projectID, "", "remediation_apply", "plan "+plan.ID, nil)
	writeJSON(w, http.StatusAccepted, map[string]string{"job_id": job.ID})
}

// --- AI explanation bridge ----------------------------------------------

type explainRequest struct {
	Detail       string `json:"detail" validate:"required"`
	SuggestedFix string `json:"suggested_fix"`
}

// handleExplain asks the optional AI bridge to explain a finding in plain
// language. An unavailable bridge is reported as ai_available=false with a
// 200, never as an HTTP failure.
func (s *Server) handleExplain(w http.ResponseWriter, r *http.Request) {
	var req explainRequest
	if err := s.decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	unavailable := func() {
		writeJSON(w, http.StatusOK, map[string]interface{}{"ai_available": false})
	}
	if s.ai == nil {
		unavailable()
		return
	}

	prompt := "Explain this network validation finding to a network engineer and why the suggested fix resolves it.\n\nFinding: " + req.Detail
	if req.SuggestedFix != "" {
		prompt += "\nSuggested fix:\n" + req.SuggestedFix
	}
	explanation, err := s.ai.Explain(r.Context(), prompt)
	if err != nil {
		if errors.Is(err, util.ErrAIUnavailable) {
			unavailable()
			return
		}
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ai_available": true,
		"explanation":  explanation,
	})
}

// --- Plans --------------------------------------------------------------

func (s *Server) handleListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := s.store.ListPlans(chi.URLParam(r, "project_id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, plans)
}

func (s *Server) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	plan, err := s.store.GetPlan(chi.URLParam(r, "plan_id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func (s *Server) handleApprovePlan(w http.ResponseWriter, r *http.Request) {
	planID := chi.URLParam(r, "plan_id")
	if err := s.store.TransitionPlan(planID, model.PlanApproved); err != nil {
		writeError(w, err)
		return
	}
	plan, err := s.store.GetPlan(planID)
	if err != nil {
		writeError(w, err)
		return
	}
	recordAudit(r, plan.ProjectID, "", "plan_approve", planID, nil)
	writeJSON(w, http.StatusOK, plan)
}

type itemApprovalRequest struct {
	Approved *bool `json:"approved" validate:"required"`
}

func (s *Server) handleSetItemApproval(w http.ResponseWriter, r *http.Request) {
	var req itemApprovalRequest
	if err := s.decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	planID := chi.URLParam(r, "plan_id")
	if err := s.store.SetItemApproval(planID, chi.URLParam(r, "item_id"), *req.Approved); err != nil {
		writeError(w, err)
		return
	}
	plan, err := s.store.GetPlan(planID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

// --- Rollback -----------------------------------------------------------

type rollbackRequest struct {
	PlanID  string `json:"plan_id" validate:"required"`
	Confirm bool   `json:"confirm"`
}

func (s *Server) handleRollback(w http.ResponseWriter, r *http.Request) {
	var req rollbackRequest
	if err := s.decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if !req.Confirm {
		writeError(w, util.ErrConfirmationRequired)
		return
	}

	projectID := chi.URLParam(r, "id")
	plan, err := s.store.GetPlan(req.PlanID)
	if err != nil {
		writeError(w, err)
		return
	}
	if plan.Status != model.PlanApplied || plan.AppliedAt == nil {
		writeError(w, util.NewPreconditionError("rollback", plan.ID,
			"plan is applied", string(plan.Status)))
		return
	}
	if time.Since(*plan.AppliedAt) > s.retention {
		writeError(w, util.NewPreconditionError("rollback", plan.ID,
			"applied within the retention window", plan.AppliedAt.Format(time.RFC3339)))
		return
	}
	// A later successful apply supersedes this plan as the rollback target.
	latest, err := s.store.LatestAppliedPlanID(projectID)
	if err != nil {
		writeError(w, err)
		return
	}
	if latest != plan.ID {
		writeError(w, util.NewPreconditionError("rollback", plan.ID,
			"plan is the most recent applied plan", latest))
		return
	}

	job, err := s.manager.StartRollback(r.Context(), projectID, plan)
	if err != nil {
		writeError(w, err)
		return
	}
	recordAudit(r, projectID, "", "remediation_rollback", "plan "+plan.ID, nil)
	writeJSON(w, http.StatusAccepted, map[string]string{"job_id": job.ID})
}
