package graphics

import (
	"errors"
	"fmt"
	"sync"
	"unsafe"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// ErrBufferDestroyed is returned when flushing a destroyed buffer.
var ErrBufferDestroyed = errors.New("graphics: buffer has been destroyed")

// Device provides the HAL handles graphics objects are created with.
// *whirl.Device satisfies it.
type Device interface {
	HAL() hal.Device
	Queue() hal.Queue
}

// BufferKind selects the shader-visible role of a buffer.
type BufferKind uint8

const (
	// BufferVertex is a vertex attribute buffer.
	BufferVertex BufferKind = iota

	// BufferIndex is an index buffer.
	BufferIndex

	// BufferUniform is a uniform buffer.
	BufferUniform

	// BufferStorage is a storage buffer.
	BufferStorage
)

// String returns a human-readable name for the kind.
func (k BufferKind) String() string {
	switch k {
	case BufferVertex:
		return "Vertex"
	case BufferIndex:
		return "Index"
	case BufferUniform:
		return "Uniform"
	case BufferStorage:
		return "Storage"
	default:
		return fmt.Sprintf("Unknown(%d)", k)
	}
}

// BufferUsage declares how a buffer is used. Writable buffers accept
// Flush after creation; non-writable buffers are upload-once.
type BufferUsage struct {
	Kind     BufferKind
	Writable bool
}

// flags converts the usage to HAL buffer usage flags. CopyDst is always
// included because the initial upload goes through the queue.
func (u BufferUsage) flags() gputypes.BufferUsage {
	var flags gputypes.BufferUsage
	switch u.Kind {
	case BufferVertex:
		flags = gputypes.BufferUsageVertex
	case BufferIndex:
		flags = gputypes.BufferUsageIndex
	case BufferUniform:
		flags = gputypes.BufferUsageUniform
	case BufferStorage:
		flags = gputypes.BufferUsageStorage
	}
	return flags | gputypes.BufferUsageCopyDst
}

// Capability is the type-erased view of a typed buffer. It lets buffers
// of different item types mix with textures and samplers in one
// resource set. Every *TypedBuffer satisfies it.
type Capability interface {
	// Raw returns the current HAL buffer handle. The handle changes
	// when the buffer grows; see Generation.
	Raw() hal.Buffer

	// Bytes returns the full CPU mirror as bytes.
	Bytes() []byte

	// Generation returns the allocation generation. It increments every
	// time Flush reallocates the underlying buffer, invalidating any
	// resource set that captured the previous handle.
	Generation() uint64
}

// TypedBuffer is a growable, homogeneous item array with a CPU mirror
// and a GPU backing buffer. Mutations touch only the mirror; Flush
// synchronizes the GPU side, reallocating with doubled capacity when
// the mirror has outgrown the allocation.
//
// Item types must be fixed-size and packed; the mirror is uploaded
// verbatim as the GPU-side byte layout.
//
// TypedBuffer is safe for concurrent use.
type TypedBuffer[T any] struct {
	mu     sync.RWMutex
	device hal.Device
	queue  hal.Queue
	buffer hal.Buffer

	items    []T
	capacity int

	usage      BufferUsage
	generation uint64
	label      string
	destroyed  bool
}

// Allocate creates a buffer with zeroed GPU space for capacity items
// and an empty mirror. Panics if capacity is not positive.
func Allocate[T any](device Device, capacity int, usage BufferUsage, label string) (*TypedBuffer[T], error) {
	if capacity <= 0 {
		panic("graphics: buffer capacity must be positive")
	}
	dev, queue := device.HAL(), device.Queue()
	buf, err := createBuffer(dev, label, uint64(capacity)*itemSize[T](), usage)
	if err != nil {
		return nil, err
	}
	slogger().Debug("graphics: buffer allocated",
		"label", label, "capacity", capacity, "kind", usage.Kind)
	return &TypedBuffer[T]{
		device:   dev,
		queue:    queue,
		buffer:   buf,
		capacity: capacity,
		usage:    usage,
		label:    label,
	}, nil
}

// NewTypedBuffer creates a buffer sized to the given items and uploads
// them immediately. Panics if items is empty.
func NewTypedBuffer[T any](device Device, items []T, usage BufferUsage, label string) (*TypedBuffer[T], error) {
	if len(items) == 0 {
		panic("graphics: no items provided")
	}
	dev, queue := device.HAL(), device.Queue()
	mirror := make([]T, len(items))
	copy(mirror, items)
	buf, err := createBuffer(dev, label, uint64(len(mirror))*itemSize[T](), usage)
	if err != nil {
		return nil, err
	}
	if err := queue.WriteBuffer(buf, 0, itemBytes(mirror)); err != nil {
		dev.DestroyBuffer(buf)
		return nil, fmt.Errorf("upload buffer %q: %w", label, err)
	}
	slogger().Debug("graphics: buffer created",
		"label", label, "items", len(mirror), "kind", usage.Kind)
	return &TypedBuffer[T]{
		device:   dev,
		queue:    queue,
		buffer:   buf,
		items:    mirror,
		capacity: len(mirror),
		usage:    usage,
		label:    label,
	}, nil
}

func createBuffer(dev hal.Device, label string, size uint64, usage BufferUsage) (hal.Buffer, error) {
	buf, err := dev.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  size,
		Usage: usage.flags(),
	})
	if err != nil {
		return nil, fmt.Errorf("create buffer %q: %w", label, err)
	}
	return buf, nil
}

// Write places items at mirror offset skip, growing the mirror
// (zero-filled) if the range extends past its current length. The GPU
// side is untouched until Flush. Panics if items is empty or skip is
// negative.
func (b *TypedBuffer[T]) Write(skip int, items []T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.write(skip, items)
}

func (b *TypedBuffer[T]) write(skip int, items []T) {
	if len(items) == 0 {
		panic("graphics: no items provided")
	}
	if skip < 0 {
		panic("graphics: negative buffer offset")
	}
	if need := skip + len(items); need > len(b.items) {
		grown := make([]T, need)
		copy(grown, b.items)
		b.items = grown
	}
	copy(b.items[skip:], items)
}

// Update overwrites items in place. Unlike Write, the range must lie
// entirely within the current mirror. Panics if items is empty or the
// range is out of bounds.
func (b *TypedBuffer[T]) Update(skip int, items []T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.update(skip, items)
}

func (b *TypedBuffer[T]) update(skip int, items []T) {
	if len(items) == 0 {
		panic("graphics: no items provided")
	}
	if skip < 0 || skip+len(items) > len(b.items) {
		panic(fmt.Sprintf("graphics: update range [%d, %d) out of bounds for %d items",
			skip, skip+len(items), len(b.items)))
	}
	copy(b.items[skip:], items)
}

// Extend appends items to the end of the mirror. Panics if items is
// empty.
func (b *TypedBuffer[T]) Extend(items []T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.write(len(b.items), items)
}

// Truncate shrinks the mirror to length items. Panics unless
// 0 < length < current mirror length.
func (b *TypedBuffer[T]) Truncate(length int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.truncate(length)
}

func (b *TypedBuffer[T]) truncate(length int) {
	if length <= 0 || length >= len(b.items) {
		panic(fmt.Sprintf("graphics: truncate length %d out of range (0, %d)", length, len(b.items)))
	}
	b.items = b.items[:length]
}

// Overwrite replaces the entire mirror with items. Panics if items is
// empty.
func (b *TypedBuffer[T]) Overwrite(items []T) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.overwrite(items)
}

func (b *TypedBuffer[T]) overwrite(items []T) {
	if len(items) == 0 {
		panic("graphics: no items provided")
	}
	mirror := make([]T, len(items))
	copy(mirror, items)
	b.items = mirror
}

// Nuke zero-fills the mirror in place. The length is unchanged.
func (b *TypedBuffer[T]) Nuke() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nuke()
}

func (b *TypedBuffer[T]) nuke() {
	var zero T
	for i := range b.items {
		b.items[i] = zero
	}
}

// Flush uploads the entire mirror to the GPU. If the mirror has
// outgrown the allocation, capacity doubles until it fits, the buffer
// is reallocated and the whole mirror re-uploaded; the old handle is
// gone and the generation increments. Panics if the buffer is not
// writable.
func (b *TypedBuffer[T]) Flush() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.flush(0, len(b.items))
}

// FlushRange uploads items [skip, skip+count) to the GPU. Growth is
// handled as in Flush, in which case the full mirror is uploaded
// regardless of the range. Panics if the buffer is not writable or the
// range exceeds the mirror.
func (b *TypedBuffer[T]) FlushRange(skip, count int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.flush(skip, count)
}

func (b *TypedBuffer[T]) flush(skip, count int) error {
	if !b.usage.Writable {
		panic(fmt.Sprintf("graphics: flush on non-writable buffer %q", b.label))
	}
	if skip < 0 || count < 0 || skip+count > len(b.items) {
		panic(fmt.Sprintf("graphics: flush range [%d, %d) out of bounds for %d items",
			skip, skip+count, len(b.items)))
	}
	if b.destroyed {
		return ErrBufferDestroyed
	}

	size := itemSize[T]()

	if len(b.items) > b.capacity {
		grown := b.capacity
		for grown < len(b.items) {
			grown *= 2
		}
		buf, err := createBuffer(b.device, b.label, uint64(grown)*size, b.usage)
		if err != nil {
			return fmt.Errorf("grow buffer %q to %d items: %w", b.label, grown, err)
		}
		b.device.DestroyBuffer(b.buffer)
		b.buffer = buf
		b.capacity = grown
		b.generation++
		// Allocation identity changed, so the requested range is moot:
		// the new buffer holds nothing yet.
		if err := b.queue.WriteBuffer(b.buffer, 0, itemBytes(b.items)); err != nil {
			return fmt.Errorf("upload buffer %q: %w", b.label, err)
		}
		slogger().Debug("graphics: buffer grown",
			"label", b.label, "capacity", grown, "generation", b.generation)
		return nil
	}

	if count == 0 {
		return nil
	}
	data := itemBytes(b.items[skip : skip+count])
	if err := b.queue.WriteBuffer(b.buffer, uint64(skip)*size, data); err != nil {
		return fmt.Errorf("upload buffer %q: %w", b.label, err)
	}
	return nil
}

// WriteAndFlush is Write followed by a full Flush.
func (b *TypedBuffer[T]) WriteAndFlush(skip int, items []T) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.write(skip, items)
	return b.flush(0, len(b.items))
}

// UpdateAndFlush updates items in place, then flushes only the touched
// range.
func (b *TypedBuffer[T]) UpdateAndFlush(skip int, items []T) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.update(skip, items)
	return b.flush(skip, len(items))
}

// ExtendAndFlush is Extend followed by a full Flush.
func (b *TypedBuffer[T]) ExtendAndFlush(items []T) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.write(len(b.items), items)
	return b.flush(0, len(b.items))
}

// OverwriteAndFlush is Overwrite followed by a full Flush.
func (b *TypedBuffer[T]) OverwriteAndFlush(items []T) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.overwrite(items)
	return b.flush(0, len(b.items))
}

// TruncateAndFlush is Truncate followed by a full Flush.
func (b *TypedBuffer[T]) TruncateAndFlush(length int) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.truncate(length)
	return b.flush(0, len(b.items))
}

// NukeAndFlush is Nuke followed by a full Flush.
func (b *TypedBuffer[T]) NukeAndFlush() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nuke()
	return b.flush(0, len(b.items))
}

// Raw returns the current HAL buffer handle.
func (b *TypedBuffer[T]) Raw() hal.Buffer {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.buffer
}

// Bytes returns the full CPU mirror as bytes. The slice aliases the
// mirror and is invalidated by the next mutation.
func (b *TypedBuffer[T]) Bytes() []byte {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return itemBytes(b.items)
}

// Generation returns the allocation generation.
func (b *TypedBuffer[T]) Generation() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.generation
}

// Len returns the mirror length in items.
func (b *TypedBuffer[T]) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.items)
}

// Capacity returns the GPU allocation size in items. Always >= Len.
func (b *TypedBuffer[T]) Capacity() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.capacity
}

// Usage returns the buffer's usage declaration.
func (b *TypedBuffer[T]) Usage() BufferUsage { return b.usage }

// Label returns the buffer's debug label.
func (b *TypedBuffer[T]) Label() string { return b.label }

// Destroy releases the GPU buffer. The CPU mirror stays readable.
// Safe to call multiple times.
func (b *TypedBuffer[T]) Destroy() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.destroyed {
		return
	}
	if b.buffer != nil {
		b.device.DestroyBuffer(b.buffer)
		b.buffer = nil
	}
	b.destroyed = true
	slogger().Debug("graphics: buffer destroyed", "label", b.label)
}

// itemSize returns the size of one item in bytes.
func itemSize[T any]() uint64 {
	var zero T
	return uint64(unsafe.Sizeof(zero))
}

// itemBytes views a slice of items as raw bytes without copying.
func itemBytes[T any](items []T) []byte {
	if len(items) == 0 {
		return nil
	}
	size := unsafe.Sizeof(items[0])
	return unsafe.Slice((*byte)(unsafe.Pointer(&items[0])), uintptr(len(items))*size) //nolint:gosec // fixed-size item serialization
}
