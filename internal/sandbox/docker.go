package sandbox

import (
	"archive/tar"
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/client"
)

// DockerConfig holds container executor limits
type DockerConfig struct {
	MemoryMB   int
	CPULimit   float64
	NetworkOff bool
}

// DefaultDockerConfig returns conservative sandbox limits
func DefaultDockerConfig() DockerConfig {
	return DockerConfig{
		MemoryMB:   256,
		CPULimit:   0.5,
		NetworkOff: true,
	}
}

// DockerExecutor runs specs inside short-lived resource-limited containers
type DockerExecutor struct {
	client *client.Client
	cfg    DockerConfig
}

// NewDockerExecutor creates a container executor and verifies the daemon
// is reachable.
func NewDockerExecutor(cfg DockerConfig) (*DockerExecutor, error) {
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

	return &DockerExecutor{client: cli, cfg: cfg}, nil
}

func (e *DockerExecutor) Exec(ctx context.Context, spec ExecSpec) (*ExecOutput, error) {
	if spec.Image == "" {
		return nil, fmt.Errorf("exec spec has no image")
	}
	if err := e.ensureImage(ctx, spec.Image); err != nil {
		return nil, fmt.Errorf("ensure image: %w", err)
	}

	containerCfg := &container.Config{
		Image:           spec.Image,
		Cmd:             []string{"sh", "-c", "while true; do sleep 3600; done"},
		WorkingDir:      "/workspace",
		NetworkDisabled: e.cfg.NetworkOff,
		Labels: map[string]string{
			"codequest.sandbox": "true",
		},
	}
	hostCfg := &container.HostConfig{
		Resources: container.Resources{
			Memory:   int64(e.cfg.MemoryMB) * 1024 * 1024,
			NanoCPUs: int64(e.cfg.CPULimit * 1e9),
		},
	}

	resp, err := e.client.ContainerCreate(ctx, containerCfg, hostCfg, nil, nil, "")
	if err != nil {
		return nil, fmt.Errorf("create container: %w", err)
	}
	defer func() {
		rmCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = e.client.ContainerRemove(rmCtx, resp.ID, container.RemoveOptions{Force: true})
	}()

	if err := e.client.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
		return nil, fmt.Errorf("start container: %w", err)
	}

	if err := e.copyFiles(ctx, resp.ID, spec.Files); err != nil {
		return nil, fmt.Errorf("copy files: %w", err)
	}

	execCtx := ctx
	var cancel context.CancelFunc
	if spec.Timeout > 0 {
		execCtx, cancel = context.WithTimeout(ctx, spec.Timeout)
		defer cancel()
	}

	execResp, err := e.client.ContainerExecCreate(execCtx, resp.ID, container.ExecOptions{
		Cmd:          spec.Command,
		WorkingDir:   "/workspace",
		AttachStdout: true,
		AttachStderr: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create exec: %w", err)
	}

	start := time.Now()
	attachResp, err := e.client.ContainerExecAttach(execCtx, execResp.ID, container.ExecAttachOptions{})
	if err != nil {
		return nil, fmt.Errorf("attach exec: %w", err)
	}
	defer attachResp.Close()

	var outBuf cappedBuffer
	_, copyErr := io.Copy(&outBuf, attachResp.Reader)
	duration := time.Since(start)

	if execCtx.Err() == context.DeadlineExceeded {
		stdout, stderr := demuxOutput([]byte(outBuf.String()))
		return &ExecOutput{
			Stdout:   stdout,
			Stderr:   stderr,
			ExitCode: -1,
			TimedOut: true,
			Duration: duration,
		}, nil
	}
	if copyErr != nil {
		return nil, fmt.Errorf("read exec output: %w", copyErr)
	}

	inspectResp, err := e.client.ContainerExecInspect(ctx, execResp.ID)
	if err != nil {
		return nil, fmt.Errorf("inspect exec: %w", err)
	}

	stdout, stderr := demuxOutput([]byte(outBuf.String()))
	return &ExecOutput{
		Stdout:   stdout,
		Stderr:   stderr,
		ExitCode: inspectResp.ExitCode,
		Duration: duration,
	}, nil
}

// Close closes the Docker client
func (e *DockerExecutor) Close() error {
	return e.client.Close()
}

func (e *DockerExecutor) copyFiles(ctx context.Context, containerID string, files map[string]string) error {
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for name, content := range files {
		header := &tar.Header{
			Name: name,
			Mode: 0o644,
			Size: int64(len(content)),
		}
		if err := tw.WriteHeader(header); err != nil {
			return err
		}
		if _, err := tw.Write([]byte(content)); err != nil {
			return err
		}
	}
	if err := tw.Close(); err != nil {
		return err
	}
	return e.client.CopyToContainer(ctx, containerID, "/workspace", &buf, container.CopyToContainerOptions{})
}

func (e *DockerExecutor) ensureImage(ctx context.Context, img string) error {
	if _, err := e.client.ImageInspect(ctx, img); err == nil {
		return nil
	}
	reader, err := e.client.ImagePull(ctx, img, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("pull image %s: %w", img, err)
	}
	defer reader.Close()
	_, _ = io.Copy(io.Discard, reader)
	return nil
}

// demuxOutput separates Docker multiplexed stdout/stderr streams.
// The stream protocol uses 8-byte headers: [type][0][0][0][size1..size4],
// type 1=stdout, 2=stderr.
func demuxOutput(data []byte) (stdout, stderr string) {
	var outBuf, errBuf strings.Builder

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

	if outBuf.Len() == 0 && errBuf.Len() == 0 && len(data) > 0 {
		return string(data), ""
	}
	return outBuf.String(), errBuf.String()
}
