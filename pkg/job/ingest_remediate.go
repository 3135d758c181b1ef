package job

import (
	"context"

	"github.com/google/uuid"

	"netval/internal/metrics"
	"netval/pkg/model"
	"netval/pkg/remediation"
	"netval/pkg/sshpool"
	"netval/pkg/util"
	"netval/pkg/vault"
)

// DeviceStore is the narrow device/credential/snapshot persistence Manager
// needs for ingestion and remediation jobs.
type DeviceStore interface {
	GetDevice(id string) (*model.Device, error)
	CreateSnapshot(projectID string, snap *model.ConfigSnapshot) error
	GetPlan(id string) (*model.RemediationPlan, error)
	TransitionPlan(id string, to model.PlanStatus) error
}

// VaultLoader resolves a device's stored credential material.
type VaultLoader interface {
	Load(ref string) (*vault.Material, error)
}

// IngestionManager extends Manager with SSH-backed ingestion and
// remediation apply jobs, kept in a separate type so a caller that only
// needs simulation runs (e.g. unit tests) is not forced to wire an SSH
// pool and vault.
type IngestionManager struct {
	*Manager
	devices DeviceStore
	vault   VaultLoader
	pool    *sshpool.Pool
}

// NewIngestionManager builds an IngestionManager around an existing
// Manager.
func NewIngestionManager(m *Manager, devices DeviceStore, vaultLoader VaultLoader, pool *sshpool.Pool) *IngestionManager {
	return &IngestionManager{Manager: m, devices: devices, vault: vaultLoader, pool: pool}
}

// Probe performs a liveness check over SSH without persisting anything.
func (im *IngestionManager) Probe(ctx context.Context, device *model.Device, creds *vault.Material) error {
	return im.pool.Probe(ctx, device, creds)
}

// StartIngestion creates a queued ingestion job and runs it: dials the
// device over SSH, captures the fixed command set, and persists the
// resulting running-config as a source=ssh ConfigSnapshot.
func (im *IngestionManager) StartIngestion(ctx context.Context, projectID, deviceID string) (*model.SimulationJob, error) {
	j := &model.SimulationJob{
		ID:        uuid.NewString(),
		ProjectID: projectID,
		Kind:      model.KindIngestion,
		Status:    model.JobQueued,
	}
	if err := im.store.CreateJob(j); err != nil {
		return nil, err
	}
	metrics.JobsStarted.WithLabelValues(string(model.KindIngestion)).Inc()
	go im.runIngestion(ctx, j.ID, projectID, deviceID)
	return j, nil
}

func (im *IngestionManager) runIngestion(ctx context.Context, jobID, projectID, deviceID string) {
	im.markRunning(jobID)
	device, err := im.devices.GetDevice(deviceID)
	if err != nil {
		im.fail(jobID, err)
		return
	}
	if device.CredentialRef == nil {
		im.fail(jobID, util.ErrDependencyMissing)
		return
	}
	creds, err := im.vault.Load(*device.CredentialRef)
	if err != nil {
		im.fail(jobID, err)
		return
	}

	outputs, err := im.pool.Ingest(ctx, device, creds)
	if err != nil {
		im.fail(jobID, err)
		return
	}
	raw := outputs["show running-config"]

	snap := &model.ConfigSnapshot{
		DeviceID:   deviceID,
		RawConfig:  raw,
		ConfigHash: util.HashConfig(raw),
		Source:     model.SourceSSH,
	}
	if err := im.devices.CreateSnapshot(projectID, snap); err != nil {
		im.fail(jobID, err)
		return
	}

	im.complete(jobID, nil)
}

// StartRemediation creates a queued remediation job and applies plan's
// approved items device-by-device via the SSH pool, streaming progress.
func (im *IngestionManager) StartRemediation(ctx context.Context, projectID string, plan *model.RemediationPlan) (*model.SimulationJob, error) {
	j := &model.SimulationJob{
		ID:        uuid.NewString(),
		ProjectID: projectID,
		Kind:      model.KindRemediation,
		Status:    model.JobQueued,
	}
	if err := im.store.CreateJob(j); err != nil {
		return nil, err
	}
	metrics.JobsStarted.WithLabelValues(string(model.KindRemediation)).Inc()
	go im.runRemediation(ctx, j.ID, projectID, plan)
	return j, nil
}

func (im *IngestionManager) runRemediation(ctx context.Context, jobID, projectID string, plan *model.RemediationPlan) {
	im.markRunning(jobID)
	if err := im.devices.TransitionPlan(plan.ID, model.PlanApplying); err != nil {
		im.fail(jobID, err)
		return
	}

	devices, creds, err := im.resolvePlanDevices(plan)
	if err != nil {
		im.fail(jobID, err)
		return
	}

	result := remediation.Apply(ctx, im.pool, plan, devices, creds,
		im.prePushSnapshotter(projectID),
		func(line string) {
			im.hub.Publish(Event{JobID: jobID, Kind: EventPushLine, Detail: line})
		},
		func(dr remediation.DeviceResult) {
			im.hub.Publish(Event{JobID: jobID, Kind: EventPushDeviceComplete, Detail: dr.DeviceID})
		})

	finalStatus := model.PlanApplied
	if result.Failed {
		finalStatus = model.PlanFailed
	}
	if err := im.devices.TransitionPlan(plan.ID, finalStatus); err != nil {
		util.WithField("job_id", jobID).Errorf("persisting plan transition: %v", err)
	}

	if result.Failed {
		im.fail(jobID, util.ErrPushFailure)
		return
	}
	im.complete(jobID, nil)
}

// prePushSnapshotter returns the SnapshotFunc Apply/Rollback use to persist
// a source=pre_push ConfigSnapshot before touching a device.
func (im *IngestionManager) prePushSnapshotter(projectID string) remediation.SnapshotFunc {
	return func(deviceID, raw string) (string, error) {
		snap := &model.ConfigSnapshot{
			DeviceID:   deviceID,
			RawConfig:  raw,
			ConfigHash: util.HashConfig(raw),
			Source:     model.SourcePrePush,
		}
		if err := im.devices.CreateSnapshot(projectID, snap); err != nil {
			return "", err
		}
		return snap.ID, nil
	}
}

// resolvePlanDevices loads every device a plan's items touch, plus whatever
// credential material the vault has for them. A device without credentials
// is still returned; Apply/Rollback report it per-device rather than
// aborting the whole plan.
func (im *IngestionManager) resolvePlanDevices(plan *model.RemediationPlan) (map[string]*model.Device, map[string]*vault.Material, error) {
	devices := make(map[string]*model.Device)
	creds := make(map[string]*vault.Material)
	for _, item := range plan.Items {
		if _, ok := devices[item.DeviceID]; ok {
			continue
		}
		d, err := im.devices.GetDevice(item.DeviceID)
		if err != nil {
			return nil, nil, err
		}
		devices[item.DeviceID] = d
		if d.CredentialRef != nil {
			if m, err := im.vault.Load(*d.CredentialRef); err == nil {
				creds[item.DeviceID] = m
			}
		}
	}
	return devices, creds, nil
}

// StartRollback creates a queued remediation job that pushes plan's rollback
// CLI device-by-device, transitioning the plan applied -> rolled_back on
// success. On any device failure the plan stays applied so the operator can
// retry.
func (im *IngestionManager) StartRollback(ctx context.Context, projectID string, plan *model.RemediationPlan) (*model.SimulationJob, error) {
	j := &model.SimulationJob{
		ID:        uuid.NewString(),
		ProjectID: projectID,
		Kind:      model.KindRemediation,
		Status:    model.JobQueued,
	}
	if err := im.store.CreateJob(j); err != nil {
		return nil, err
	}
	metrics.JobsStarted.WithLabelValues(string(model.KindRemediation)).Inc()
	go im.runRollback(ctx, j.ID, projectID, plan)
	return j, nil
}

func (im *IngestionManager) runRollback(ctx context.Context, jobID, projectID string, plan *model.RemediationPlan) {
	im.markRunning(jobID)
	devices, creds, err := im.resolvePlanDevices(plan)
	if err != nil {
		im.fail(jobID, err)
		return
	}

	result := remediation.Rollback(ctx, im.pool, plan, devices, creds,
		im.prePushSnapshotter(projectID),
		func(line string) {
			im.hub.Publish(Event{JobID: jobID, Kind: EventPushLine, Detail: line})
		},
		func(dr remediation.DeviceResult) {
			im.hub.Publish(Event{JobID: jobID, Kind: EventPushDeviceComplete, Detail: dr.DeviceID})
		})

	if result.Failed {
		im.fail(jobID, util.ErrPushFailure)
		return
	}
	if err := im.devices.TransitionPlan(plan.ID, model.PlanRolledBack); err != nil {
		util.WithField("job_id", jobID).Errorf("persisting rollback transition: %v", err)
	}
	im.complete(jobID, nil)
}
