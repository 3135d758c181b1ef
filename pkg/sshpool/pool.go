// Package sshpool bounds the concurrent SSH sessions used to ingest
// running configuration from, and push remediation patches to, lab
// devices: a weighted semaphore caps in-flight sessions and a per-device
// circuit breaker isolates repeated failures so one dead device cannot
// starve the pool for the rest of a project.
package sshpool

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/sync/semaphore"

	"github.com/sony/gobreaker"

	"netval/internal/metrics"
	"netval/pkg/model"
	"netval/pkg/util"
	"netval/pkg/vault"
)

const (
	connectTimeout = 15 * time.Second
	commandTimeout = 30 * time.Second
)

// ingestCommands is the fixed command set executed by Ingest, in order.
var ingestCommands = []string{
	"show running-config",
	"show vlan",
	"show ip interface brief",
	"show cdp neighbors detail",
	"show version",
}

// PushResult is the outcome of one Push call.
type PushResult struct {
	DeviceID   string
	Success    bool
	LinesSent  int
	PrePushRef string // ConfigSnapshot.ID captured before the push, if any
	Err        error
}

// ProgressFunc is invoked with a streaming progress line during Ingest/Push,
// for the caller to forward onto the Job Manager's event stream.
type ProgressFunc func(line string)

// Pool bounds concurrent SSH sessions across all devices (default 5) and
// isolates a misbehaving device behind its own circuit breaker so one
// unreachable device cannot starve the pool for the rest of a project.
type Pool struct {
	sem      *semaphore.Weighted
	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

// New returns a Pool bounded to maxConcurrent simultaneous sessions. A
// maxConcurrent of 0 uses the default of 5.
func New(maxConcurrent int64) *Pool {
	if maxConcurrent <= 0 {
		maxConcurrent = 5
	}
	return &Pool{
		sem:      semaphore.NewWeighted(maxConcurrent),
		breakers: make(map[string]*gobreaker.CircuitBreaker),
	}
}

func (p *Pool) breakerFor(deviceID string) *gobreaker.CircuitBreaker {
	p.mu.Lock()
	defer p.mu.Unlock()
	if b, ok := p.breakers[deviceID]; ok {
		return b
	}
	b := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "ssh:" + deviceID,
		MaxRequests: 1,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.CircuitBreakerState.WithLabelValues(deviceID).Set(float64(to))
		},
	})
	p.breakers[deviceID] = b
	return b
}

// dial opens an SSH client to device using the supplied credential material,
// honoring ctx's deadline and the fixed connect timeout, whichever is
// shorter.
func dial(ctx context.Context, device *model.Device, creds *vault.Material) (*ssh.Client, error) {
	auth, err := authMethod(creds)
	if err != nil {
		return nil, util.NewDeviceIOError(device.ID, util.ErrAuthFailure, err)
	}

	config := &ssh.ClientConfig{
		User:            creds.Username,
		Auth:            []ssh.AuthMethod{auth},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         connectTimeout,
	}

	addr := fmt.Sprintf("%s:22", device.ManagementIP)
	type dialResult struct {
		client *ssh.Client
		err    error
	}
	resultCh := make(chan dialResult, 1)
	go func() {
		client, err := ssh.Dial("tcp", addr, config)
		resultCh <- dialResult{client, err}
	}()

	select {
	case <-ctx.Done():
		return nil, util.NewDeviceIOError(device.ID, util.ErrDeviceUnreachable, ctx.Err())
	case r := <-resultCh:
		if r.err != nil {
			return nil, util.NewDeviceIOError(device.ID, util.ErrDeviceUnreachable, r.err)
		}
		return r.client, nil
	}
}

func authMethod(creds *vault.Material) (ssh.AuthMethod, error) {
	if creds.KeyPath != "" {
		signer, err := loadSigner(creds.KeyPath)
		if err != nil {
			return nil, err
		}
		return ssh.PublicKeys(signer), nil
	}
	return ssh.Password(creds.Password), nil
}

// execOne runs a single command on client with a per-command timeout,
// preserving the underlying error class for reporting.
func execOne(ctx context.Context, client *ssh.Client, deviceID, cmd string) (string, error) {
	session, err := client.NewSession()
	if err != nil {
		return "", util.NewDeviceIOError(deviceID, util.ErrDeviceUnreachable, err)
	}
	defer session.Close()

	cctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	type execResult struct {
		output []byte
		err    error
	}
	doneCh := make(chan execResult, 1)
	go func() {
		out, err := session.CombinedOutput(cmd)
		doneCh <- execResult{out, err}
	}()

	select {
	case <-cctx.Done():
		return "", util.NewDeviceIOError(deviceID, util.ErrDeviceUnreachable, cctx.Err())
	case r := <-doneCh:
		if r.err != nil {
			return string(r.output), util.NewDeviceIOError(deviceID, util.ErrPushFailure, r.err)
		}
		return string(r.output), nil
	}
}

// Ingest opens one session per the fixed command set and returns each
// output keyed by command. The caller is responsible for
// persisting the resulting ConfigSnapshot with source=ssh.
func (p *Pool) Ingest(ctx context.Context, device *model.Device, creds *vault.Material) (map[string]string, error) {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer p.sem.Release(1)
	metrics.SSHSessionsActive.Inc()
	defer metrics.SSHSessionsActive.Dec()

	breaker := p.breakerFor(device.ID)
	result, err := breaker.Execute(func() (interface{}, error) {
		client, err := dial(ctx, device, creds)
		if err != nil {
			return nil, err
		}
		defer client.Close()

		outputs := make(map[string]string, len(ingestCommands))
		for _, cmd := range ingestCommands {
			out, err := execOne(ctx, client, device.ID, cmd)
			if err != nil {
				return nil, err
			}
			outputs[cmd] = out
		}
		return outputs, nil
	})
	if err != nil {
		metrics.SSHSessionFailures.WithLabelValues(failureClass(err)).Inc()
		return nil, err
	}
	return result.(map[string]string), nil
}

// Probe dials device and immediately closes the session, for the
// ssh-connect liveness route without running any command.
func (p *Pool) Probe(ctx context.Context, device *model.Device, creds *vault.Material) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer p.sem.Release(1)
	metrics.SSHSessionsActive.Inc()
	defer metrics.SSHSessionsActive.Dec()

	breaker := p.breakerFor(device.ID)
	_, err := breaker.Execute(func() (interface{}, error) {
		client, err := dial(ctx, device, creds)
		if err != nil {
			return nil, err
		}
		return nil, client.Close()
	})
	if err != nil {
		metrics.SSHSessionFailures.WithLabelValues(failureClass(err)).Inc()
	}
	return err
}

// failureClass maps an SSH-layer error to the metrics label it's reported
// under, matching the ErrDeviceUnreachable/ErrAuthFailure/ErrPushFailure
// taxonomy in pkg/util/errors.go.
func failureClass(err error) string {
	if ioErr, ok := err.(*util.DeviceIOError); ok {
		switch ioErr.Kind {
		case util.ErrDeviceUnreachable:
			return "unreachable"
		case util.ErrAuthFailure:
			return "auth"
		case util.ErrPushFailure:
			return "push"
		}
	}
	return "other"
}

// Push requires confirm == true, captures a pre_push snapshot, enters
// configure mode, sends each patch line with a short inter-line settle, and
// ends with `end` then `write memory`. capturePrePush is called
// with the device's full running-config before any change is sent, and must
// return the persisted snapshot's id.
func (p *Pool) Push(ctx context.Context, device *model.Device, creds *vault.Material, patchLines []string, confirm bool, capturePrePush func(rawConfig string) (string, error), progress ProgressFunc) *PushResult {
	result := &PushResult{DeviceID: device.ID}
	if !confirm {
		result.Err = util.ErrConfirmationRequired
		return result
	}

	if err := p.sem.Acquire(ctx, 1); err != nil {
		result.Err = err
		return result
	}
	defer p.sem.Release(1)
	metrics.SSHSessionsActive.Inc()
	defer metrics.SSHSessionsActive.Dec()

	breaker := p.breakerFor(device.ID)
	_, err := breaker.Execute(func() (interface{}, error) {
		client, err := dial(ctx, device, creds)
		if err != nil {
			return nil, err
		}
		defer client.Close()

		raw, err := execOne(ctx, client, device.ID, "show running-config")
		if err != nil {
			return nil, err
		}
		ref, err := capturePrePush(raw)
		if err != nil {
			return nil, util.NewStorageError("capture pre_push snapshot", err)
		}
		result.PrePushRef = ref

		session, err := client.NewSession()
		if err != nil {
			return nil, util.NewDeviceIOError(device.ID, util.ErrDeviceUnreachable, err)
		}
		defer session.Close()

		stdin, err := session.StdinPipe()
		if err != nil {
			return nil, util.NewDeviceIOError(device.ID, util.ErrDeviceUnreachable, err)
		}
		if err := session.Shell(); err != nil {
			return nil, util.NewDeviceIOError(device.ID, util.ErrDeviceUnreachable, err)
		}

		fmt.Fprintln(stdin, "configure terminal")
		for _, line := range patchLines {
			fmt.Fprintln(stdin, line)
			result.LinesSent++
			if progress != nil {
				progress(line)
			}
			time.Sleep(50 * time.Millisecond) // inter-line settle
		}
		fmt.Fprintln(stdin, "end")
		fmt.Fprintln(stdin, "write memory")
		stdin.Close()

		if err := session.Wait(); err != nil {
			return nil, util.NewDeviceIOError(device.ID, util.ErrPushFailure, err)
		}
		return nil, nil
	})

	if err != nil {
		metrics.SSHSessionFailures.WithLabelValues(failureClass(err)).Inc()
		result.Err = err
		result.Success = false
		return result
	}
	result.Success = true
	return result
}

func loadSigner(keyPath string) (ssh.Signer, error) {
	keyBytes, err := os.ReadFile(keyPath)
	if err != nil {
		return nil, fmt.Errorf("reading private key %s: %w", keyPath, err)
	}
	signer, err := ssh.ParsePrivateKey(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("parsing private key %s: %w", keyPath, err)
	}
	return signer, nil
}
