package anvil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	gethrpc "github.com/ethereum/go-ethereum/rpc"
	"github.com/trebuchet-org/ensmock/internal/domain"
	"github.com/trebuchet-org/ensmock/internal/usecase"
)

const (
	DefaultAnvilName = "anvil"
	DefaultAnvilPort = "8545"

	defaultPidFile = "/tmp/ensmock-anvil.pid"
	defaultLogFile = "/tmp/ensmock-anvil.log"
)

// How long Start waits for the node to answer RPC
var (
	startupTimeout = 10 * time.Second
	pollInterval   = 100 * time.Millisecond
)

// Manager runs anvil processes tracked through pid and log files
type Manager struct {
	log *slog.Logger
}

// NewManager creates a new anvil manager
func NewManager(log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{log: log.With("component", "AnvilManager")}
}

// Start launches anvil in the background and waits until its RPC answers
func (m *Manager) Start(ctx context.Context, instance *domain.AnvilInstance) error {
	m.setFilePaths(instance)

	if m.isRunning(instance) {
		return fmt.Errorf("anvil '%s' is already running (PID file exists at %s)", instance.Name, instance.PidFile)
	}

	logFile, err := os.Create(instance.LogFile)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}
	defer logFile.Close()

	args := buildAnvilArgs(instance)
	m.log.Debug("starting anvil", "name", instance.Name, "args", strings.Join(args, " "))

	// Not bound to ctx: the node outlives this command
	cmd := exec.Command("anvil", args...)
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start anvil: %w", err)
	}

	if err := writePidFile(instance.PidFile, cmd.Process.Pid); err != nil {
		_ = cmd.Process.Kill()
		return fmt.Errorf("failed to write PID file: %w", err)
	}
	// Reap the child if it dies while we are still around
	go func() { _ = cmd.Wait() }()

	if err := m.waitHealthy(ctx, instance); err != nil {
		return fmt.Errorf("anvil '%s' did not become ready (see %s): %w", instance.Name, instance.LogFile, err)
	}
	return nil
}

// Stop terminates the instance and removes its PID file
func (m *Manager) Stop(ctx context.Context, instance *domain.AnvilInstance) error {
	m.setFilePaths(instance)

	if !m.isRunning(instance) {
		_ = os.Remove(instance.PidFile)
		return nil
	}

	pid, err := readPidFile(instance.PidFile)
	if err != nil {
		return fmt.Errorf("failed to read PID file: %w", err)
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("failed to find process: %w", err)
	}

	m.log.Debug("stopping anvil", "name", instance.Name, "pid", pid)
	if err := process.Signal(syscall.SIGTERM); err != nil {
		if err := process.Kill(); err != nil {
			return fmt.Errorf("failed to kill process: %w", err)
		}
	}

	// The process is not our child after a restart of the CLI, so poll
	deadline := time.Now().Add(5 * time.Second)
	for processAlive(pid) {
		if time.Now().After(deadline) {
			_ = process.Kill()
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pollInterval):
		}
	}

	if err := os.Remove(instance.PidFile); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove PID file: %w", err)
	}
	return nil
}

// GetStatus reports whether the instance runs, answers RPC and has the registry installed
func (m *Manager) GetStatus(ctx context.Context, instance *domain.AnvilInstance) (*domain.AnvilStatus, error) {
	m.setFilePaths(instance)

	status := &domain.AnvilStatus{
		LogFile:         instance.LogFile,
		RegistryAddress: domain.RegistryAddress.Hex(),
	}

	if !m.isRunning(instance) {
		return status, nil
	}

	pid, _ := readPidFile(instance.PidFile)
	status.Running = true
	status.PID = pid
	status.RPCURL = rpcURL(instance)

	m.probe(ctx, instance, status)
	return status, nil
}

// probe fills the RPC health and registry fields of status
func (m *Manager) probe(ctx context.Context, instance *domain.AnvilInstance, status *domain.AnvilStatus) {
	if err := checkRPCHealth(ctx, instance); err != nil {
		status.Error = err.Error()
		return
	}
	status.RPCHealthy = true

	deployed, err := checkRegistryDeployment(ctx, instance)
	if err != nil {
		status.Error = err.Error()
		return
	}
	status.RegistryDeployed = deployed
}

// StreamLogs follows the instance log file until ctx is cancelled
func (m *Manager) StreamLogs(ctx context.Context, instance *domain.AnvilInstance, writer io.Writer) error {
	m.setFilePaths(instance)

	if _, err := os.Stat(instance.LogFile); os.IsNotExist(err) {
		return fmt.Errorf("log file does not exist: %s", instance.LogFile)
	}

	cmd := exec.CommandContext(ctx, "tail", "-f", instance.LogFile)
	cmd.Stdout = writer
	cmd.Stderr = writer
	if err := cmd.Run(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

// setFilePaths fills defaults and derives pid/log paths from the instance name
func (m *Manager) setFilePaths(instance *domain.AnvilInstance) {
	if strings.TrimSpace(instance.Name) == "" {
		instance.Name = DefaultAnvilName
	}
	if strings.TrimSpace(instance.Port) == "" {
		instance.Port = DefaultAnvilPort
	}
	if instance.PidFile != "" && instance.LogFile != "" {
		return
	}

	pidFile, logFile := defaultPidFile, defaultLogFile
	if instance.Name != DefaultAnvilName {
		pidFile = filepath.Join(os.TempDir(), fmt.Sprintf("ensmock-%s.pid", instance.Name))
		logFile = filepath.Join(os.TempDir(), fmt.Sprintf("ensmock-%s.log", instance.Name))
	}
	if instance.PidFile == "" {
		instance.PidFile = pidFile
	}
	if instance.LogFile == "" {
		instance.LogFile = logFile
	}
}

func (m *Manager) isRunning(instance *domain.AnvilInstance) bool {
	pid, err := readPidFile(instance.PidFile)
	if err != nil {
		return false
	}
	return processAlive(pid)
}

func (m *Manager) waitHealthy(ctx context.Context, instance *domain.AnvilInstance) error {
	ctx, cancel := context.WithTimeout(ctx, startupTimeout)
	defer cancel()

	var lastErr error
	for {
		if lastErr = checkRPCHealth(ctx, instance); lastErr == nil {
			return nil
		}
		if !m.isRunning(instance) {
			return errors.New("process exited")
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w (last error: %v)", ctx.Err(), lastErr)
		case <-time.After(pollInterval):
		}
	}
}

func buildAnvilArgs(instance *domain.AnvilInstance) []string {
	args := []string{"--port", instance.Port, "--host", "0.0.0.0"}
	if instance.ChainID != "" {
		args = append(args, "--chain-id", instance.ChainID)
	}
	if instance.ForkURL != "" {
		args = append(args, "--fork-url", instance.ForkURL)
	}
	return args
}

func rpcURL(instance *domain.AnvilInstance) string {
	return fmt.Sprintf("http://localhost:%s", instance.Port)
}

func call(ctx context.Context, instance *domain.AnvilInstance, result any, method string, args ...any) error {
	client, err := gethrpc.DialContext(ctx, rpcURL(instance))
	if err != nil {
		return &domain.NodeError{Method: method, Err: err}
	}
	defer client.Close()

	if err := client.CallContext(ctx, result, method, args...); err != nil {
		return &domain.NodeError{Method: method, Err: err}
	}
	return nil
}

func checkRPCHealth(ctx context.Context, instance *domain.AnvilInstance) error {
	var block hexutil.Uint64
	return call(ctx, instance, &block, "eth_blockNumber")
}

func checkRegistryDeployment(ctx context.Context, instance *domain.AnvilInstance) (bool, error) {
	var code hexutil.Bytes
	if err := call(ctx, instance, &code, "eth_getCode", domain.RegistryAddress, "latest"); err != nil {
		return false, err
	}
	return len(code) > 0, nil
}

func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return process.Signal(syscall.Signal(0)) == nil
}

func readPidFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("invalid PID in file: %s", string(data))
	}
	return pid, nil
}

func writePidFile(path string, pid int) error {
	return os.WriteFile(path, []byte(strconv.Itoa(pid)), 0644)
}

var _ usecase.AnvilManager = (*Manager)(nil)
