package sandbox

import (
	"archive/tar"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"

	"github.com/abhisek/skillprobe/internal/question"
)

const workspaceDir = "/workspace"

// DockerSandbox runs each submission in a fresh container with networking
// off and memory/CPU limits. The container is removed after the run.
type DockerSandbox struct {
	client *client.Client
	config Config
	logger *slog.Logger
}

// NewDockerSandbox connects to the Docker daemon from the environment and
// verifies it is reachable.
func NewDockerSandbox(cfg Config, logger *slog.Logger) (*DockerSandbox, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("create docker client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := cli.Ping(ctx); err != nil {
		cli.Close()
		return nil, fmt.Errorf("docker not reachable: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}
	return &DockerSandbox{client: cli, config: cfg.withDefaults(), logger: logger}, nil
}

// Run creates a container, copies the workspace in, executes the harness
// and removes the container.
func (s *DockerSandbox) Run(ctx context.Context, code string, cases []question.TestCase) (Result, error) {
	files, err := workspaceFiles(code, cases)
	if err != nil {
		return Result{}, err
	}

	if err := s.ensureImage(ctx); err != nil {
		return Result{}, fmt.Errorf("ensure image: %w", err)
	}

	id, err := s.createContainer(ctx)
	if err != nil {
		return Result{}, err
	}
	defer func() {
		rmCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.client.ContainerRemove(rmCtx, id, container.RemoveOptions{Force: true}); err != nil {
			s.logger.Warn("failed to remove sandbox container", "container_id", shortID(id), "error", err)
		}
	}()

	archive, err := tarFiles(files)
	if err != nil {
		return Result{}, err
	}
	if err := s.client.CopyToContainer(ctx, id, workspaceDir, archive, container.CopyToContainerOptions{}); err != nil {
		return Result{}, fmt.Errorf("copy workspace: %w", err)
	}

	stdout, stderr, exitCode, err := s.exec(ctx, id, harnessArgs("python3", s.config))
	if err != nil {
		return Result{}, err
	}
	if exitCode != 0 {
		return Result{}, fmt.Errorf("harness exited with %d: %s", exitCode, strings.TrimSpace(stderr))
	}

	s.logger.Debug("sandbox run complete", "container_id", shortID(id), "cases", len(cases))
	return parseReport(stdout)
}

// Close closes the Docker client.
func (s *DockerSandbox) Close() error {
	return s.client.Close()
}

func (s *DockerSandbox) createContainer(ctx context.Context) (string, error) {
	containerCfg := &container.Config{
		Image:           s.config.Image,
		Cmd:             []string{"sh", "-c", "while true; do sleep 3600; done"},
		WorkingDir:      workspaceDir,
		NetworkDisabled: s.config.NetworkOff,
		Labels: map[string]string{
			"skillprobe.sandbox": "true",
		},
	}
	hostCfg := &container.HostConfig{
		Resources: container.Resources{
			Memory:   int64(s.config.MemoryMB) * 1024 * 1024,
			NanoCPUs: int64(s.config.CPULimit * 1e9),
		},
	}

	resp, err := s.client.ContainerCreate(ctx, containerCfg, hostCfg, nil, nil, "")
	if err != nil {
		return "", fmt.Errorf("create container: %w", err)
	}
	if err := s.client.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		_ = s.client.ContainerRemove(ctx, resp.ID, container.RemoveOptions{Force: true})
		return "", fmt.Errorf("start container: %w", err)
	}
	return resp.ID, nil
}

func (s *DockerSandbox) exec(ctx context.Context, id string, cmd []string) (stdout, stderr string, exitCode int, err error) {
	execCtx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	execResp, err := s.client.ContainerExecCreate(execCtx, id, container.ExecOptions{
		Cmd:          cmd,
		WorkingDir:   workspaceDir,
		AttachStdout: true,
		AttachStderr: true,
	})
	if err != nil {
		return "", "", 0, fmt.Errorf("create exec: %w", err)
	}

	attach, err := s.client.ContainerExecAttach(execCtx, execResp.ID, container.ExecAttachOptions{})
	if err != nil {
		return "", "", 0, fmt.Errorf("attach exec: %w", err)
	}
	defer attach.Close()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, attach.Reader); err != nil {
		return "", "", 0, fmt.Errorf("read exec output: %w", err)
	}

	inspect, err := s.client.ContainerExecInspect(execCtx, execResp.ID)
	if err != nil {
		return "", "", 0, fmt.Errorf("inspect exec: %w", err)
	}

	stdout, stderr = demuxOutput(buf.Bytes())
	return stdout, stderr, inspect.ExitCode, nil
}

func (s *DockerSandbox) ensureImage(ctx context.Context) error {
	if _, err := s.client.ImageInspect(ctx, s.config.Image); err == nil {
		return nil
	}

	s.logger.Info("pulling sandbox image", "image", s.config.Image)
	reader, err := s.client.ImagePull(ctx, s.config.Image, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("pull image %s: %w", s.config.Image, err)
	}
	defer reader.Close()
	_, _ = io.Copy(io.Discard, reader)
	return nil
}

// tarFiles builds a tar archive of files in a stable order.
func tarFiles(files map[string]string) (*bytes.Buffer, error) {
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for _, name := range names {
		content := files[name]
		if err := tw.WriteHeader(&tar.Header{Name: name, Mode: 0o644, Size: int64(len(content))}); err != nil {
			return nil, fmt.Errorf("write tar header: %w", err)
		}
		if _, err := tw.Write([]byte(content)); err != nil {
			return nil, fmt.Errorf("write tar content: %w", err)
		}
	}
	if err := tw.Close(); err != nil {
		return nil, fmt.Errorf("close tar: %w", err)
	}
	return &buf, nil
}

// demuxOutput separates Docker's multiplexed stream. Each frame has an
// 8-byte header: [type][0][0][0][size big-endian uint32], type 1=stdout 2=stderr.
func demuxOutput(data []byte) (stdout, stderr string) {
	var outBuf, errBuf strings.Builder
	raw := data

	for len(data) >= 8 {
		streamType := data[0]
		size := int(data[4])<<24 | int(data[5])<<16 | int(data[6])<<8 | int(data[7])
		data = data[8:]
		if size > len(data) {
			size = len(data)
		}
		chunk := string(data[:size])
		data = data[size:]

		switch streamType {
		case 1:
			outBuf.WriteString(chunk)
		case 2:
			errBuf.WriteString(chunk)
		}
	}

	// No frames at all: treat the payload as plain stdout.
	if outBuf.Len() == 0 && errBuf.Len() == 0 && len(raw) > 0 && raw[0] != 1 && raw[0] != 2 {
		return string(raw), ""
	}
	return outBuf.String(), errBuf.String()
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
