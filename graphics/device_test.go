package graphics

import (
	"fmt"
	"strings"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
)

// testDevice satisfies the Device interface over raw HAL handles.
type testDevice struct {
	device hal.Device
	queue  hal.Queue
}

func (d *testDevice) HAL() hal.Device  { return d.device }
func (d *testDevice) Queue() hal.Queue { return d.queue }

// createNoopDevice creates a noop device and queue for testing.
// Returns the device, queue, and a cleanup function.
func createNoopDevice(t *testing.T) (hal.Device, hal.Queue, func()) {
	t.Helper()
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	if err != nil {
		t.Fatalf("CreateInstance failed: %v", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		t.Fatalf("Open failed: %v", err)
	}
	cleanup := func() {
		openDev.Device.Destroy()
		instance.Destroy()
	}
	return openDev.Device, openDev.Queue, cleanup
}

// bufferWrite is one recorded WriteBuffer call.
type bufferWrite struct {
	offset uint64
	data   []byte
}

// recordingQueue wraps a HAL queue and records buffer uploads.
type recordingQueue struct {
	hal.Queue
	writes []bufferWrite
}

func (q *recordingQueue) WriteBuffer(buf hal.Buffer, offset uint64, data []byte) error {
	cp := make([]byte, len(data))
	copy(cp, data)
	q.writes = append(q.writes, bufferWrite{offset: offset, data: cp})
	return q.Queue.WriteBuffer(buf, offset, data)
}

func (q *recordingQueue) reset() { q.writes = nil }

// recordingDevice wraps a HAL device and records buffer lifecycle calls.
type recordingDevice struct {
	hal.Device
	created   []hal.BufferDescriptor
	destroyed int
}

func (d *recordingDevice) CreateBuffer(desc *hal.BufferDescriptor) (hal.Buffer, error) {
	d.created = append(d.created, *desc)
	return d.Device.CreateBuffer(desc)
}

func (d *recordingDevice) DestroyBuffer(buf hal.Buffer) {
	d.destroyed++
	d.Device.DestroyBuffer(buf)
}

// newRecordingDevice builds a Device whose buffer creations and uploads
// are observable.
func newRecordingDevice(t *testing.T) (*testDevice, *recordingDevice, *recordingQueue, func()) {
	t.Helper()
	dev, queue, cleanup := createNoopDevice(t)
	rd := &recordingDevice{Device: dev}
	rq := &recordingQueue{Queue: queue}
	return &testDevice{device: rd, queue: rq}, rd, rq, cleanup
}

// mustPanic fails the test unless fn panics with a message containing
// want.
func mustPanic(t *testing.T, want string, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("expected panic containing %q, got none", want)
		}
		msg := fmt.Sprint(r)
		if !strings.Contains(msg, want) {
			t.Errorf("panic %q does not contain %q", msg, want)
		}
	}()
	fn()
}
