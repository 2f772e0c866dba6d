package vm

import (
	"github.com/axe-run/axe-interpreter/display"
	"github.com/axe-run/axe-interpreter/keymap"
	"github.com/axe-run/axe-interpreter/memmap"
)

// Calculator owns the simulated machine's state: the flat 65,535-slot
// byte memory (spec.md §3) and the two 768-byte bit framebuffers used
// to form grayscale pairs. It is the receiver for every drawing and
// memory-access primitive the flattened program's steps call into.
type Calculator struct {
	Mem [memmap.Size]byte

	Display  display.Display
	Bindings *keymap.Bindings
}

// NewCalculator returns a Calculator with zeroed memory, wired to the
// given display and key bindings.
func NewCalculator(d display.Display, b *keymap.Bindings) *Calculator {
	return &Calculator{Display: d, Bindings: b}
}

// wrap folds an address into [0, memmap.Size), per spec.md's "modulo
// wraparound" rule. Go's uint16 wraps mod 65536, one past Size, so
// wraparound is computed explicitly rather than relying on integer
// overflow.
func wrap(addr int) int {
	m := addr % memmap.Size
	if m < 0 {
		m += memmap.Size
	}
	return m
}

// GetByte reads a single byte at addr (width 1).
func (c *Calculator) GetByte(addr int) byte {
	return c.Mem[wrap(addr)]
}

// SetByte writes a single byte at addr (width 1).
func (c *Calculator) SetByte(addr int, v byte) {
	c.Mem[wrap(addr)] = v
}

// GetWord reads a little-endian 2-byte value at addr (width 2),
// wrapping independently for each byte so a word straddling the end
// of memory reads correctly.
func (c *Calculator) GetWord(addr int) uint16 {
	lo := c.Mem[wrap(addr)]
	hi := c.Mem[wrap(addr+1)]
	return uint16(lo) | uint16(hi)<<8
}

// SetWord writes a little-endian 2-byte value at addr (width 2).
func (c *Calculator) SetWord(addr int, v uint16) {
	c.Mem[wrap(addr)] = byte(v)
	c.Mem[wrap(addr+1)] = byte(v >> 8)
}

// GetVar reads the 2-byte cell backing variable letter ('A'..'Z').
func (c *Calculator) GetVar(letter byte) uint16 {
	return c.GetWord(int(memmap.VarAddress(letter)))
}

// SetVar writes the 2-byte cell backing variable letter ('A'..'Z').
func (c *Calculator) SetVar(letter byte, v uint16) {
	c.SetWord(int(memmap.VarAddress(letter)), v)
}

// --- Framebuffer bit addressing ---
//
// Bit ordering is MSB-leftmost (bit 7 of a row byte is the leftmost
// pixel in that byte's 8-pixel span): this is the convention real Axe
// uses, and spec.md §9 calls for applying it uniformly to both the
// rect-family pixel operations and the grayscale blit, rather than
// picking a different convention for each.

func pixelMask(x int) byte {
	return 1 << uint(7-(x&7))
}

func pixelIndex(x, y int) (byteOffset int, mask byte) {
	return y*memmap.BytesPerRow + x/8, pixelMask(x)
}

func inBounds(x, y int) bool {
	return x >= 0 && x < memmap.ScreenWidth && y >= 0 && y < memmap.ScreenHeight
}

// PxlOn sets the pixel at (x,y) in the given buffer.
func (c *Calculator) PxlOn(buffer int, x, y int) {
	if !inBounds(x, y) {
		return
	}
	off, mask := pixelIndex(x, y)
	c.Mem[wrap(buffer+off)] |= mask
}

// PxlOff clears the pixel at (x,y) in the given buffer.
func (c *Calculator) PxlOff(buffer int, x, y int) {
	if !inBounds(x, y) {
		return
	}
	off, mask := pixelIndex(x, y)
	c.Mem[wrap(buffer+off)] &^= mask
}

// PxlChange toggles the pixel at (x,y) in the given buffer.
func (c *Calculator) PxlChange(buffer int, x, y int) {
	if !inBounds(x, y) {
		return
	}
	off, mask := pixelIndex(x, y)
	c.Mem[wrap(buffer+off)] ^= mask
}

// PxlTest reports whether the pixel at (x,y) is set in the given
// buffer. Out-of-bounds coordinates read as off.
func (c *Calculator) PxlTest(buffer int, x, y int) bool {
	if !inBounds(x, y) {
		return false
	}
	off, mask := pixelIndex(x, y)
	return c.Mem[wrap(buffer+off)]&mask != 0
}

// setPixelMode applies one of PxlOn/PxlOff/PxlChange to every pixel a
// shape primitive touches, letting Rect/Line/Circle share one drawing
// loop regardless of which command invoked them.
type pixelOp func(buffer int, x, y int)

func (c *Calculator) opFor(mode int) pixelOp {
	switch mode {
	case DrawOff:
		return c.PxlOff
	case DrawChange:
		return c.PxlChange
	default:
		return c.PxlOn
	}
}

// Draw modes for the rect/line/circle family.
const (
	DrawOn = iota
	DrawOff
	DrawChange
)

// Rect fills (or clears/inverts, per mode) a w x h block with its
// top-left corner at (x,y).
func (c *Calculator) Rect(buffer int, x, y, w, h, mode int) {
	op := c.opFor(mode)
	for row := y; row < y+h; row++ {
		for col := x; col < x+w; col++ {
			op(buffer, col, row)
		}
	}
}

// Line draws a straight line from (x0,y0) to (x1,y1) using Bresenham's
// algorithm.
func (c *Calculator) Line(buffer int, x0, y0, x1, y1 int) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy

	for {
		c.PxlOn(buffer, x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Circle draws a circle of radius r centered at (cx,cy) using the
// midpoint circle algorithm, plotting all eight symmetric octant
// points per step.
func (c *Calculator) Circle(buffer int, cx, cy, r int) {
	x := r
	y := 0
	err := 1 - x

	plotOctants := func(x, y int) {
		c.PxlOn(buffer, cx+x, cy+y)
		c.PxlOn(buffer, cx+y, cy+x)
		c.PxlOn(buffer, cx-y, cy+x)
		c.PxlOn(buffer, cx-x, cy+y)
		c.PxlOn(buffer, cx-x, cy-y)
		c.PxlOn(buffer, cx-y, cy-x)
		c.PxlOn(buffer, cx+y, cy-x)
		c.PxlOn(buffer, cx+x, cy-y)
	}

	for x >= y {
		plotOctants(x, y)
		y++
		if err < 0 {
			err += 2*y + 1
		} else {
			x--
			err += 2*(y-x) + 1
		}
	}
}

// ShiftBufferVertical shifts every row of the given buffer down (dy >
// 0) or up (dy < 0) by dy rows, leaving vacated rows cleared.
func (c *Calculator) ShiftBufferVertical(buffer int, dy int) {
	rows := memmap.ScreenHeight
	stride := memmap.BytesPerRow
	src := make([]byte, rows*stride)
	for i := range src {
		src[i] = c.Mem[wrap(buffer+i)]
	}
	dst := make([]byte, rows*stride)
	for row := 0; row < rows; row++ {
		fromRow := row - dy
		if fromRow < 0 || fromRow >= rows {
			continue
		}
		copy(dst[row*stride:row*stride+stride], src[fromRow*stride:fromRow*stride+stride])
	}
	for i, b := range dst {
		c.Mem[wrap(buffer+i)] = b
	}
}

// ShiftBufferHorizontal shifts every row of the given buffer right
// (dx > 0) or left (dx < 0) by dx pixels, leaving vacated columns
// cleared. Shifting is done bit-by-bit across the whole row so the
// shift carries correctly across byte boundaries.
func (c *Calculator) ShiftBufferHorizontal(buffer int, dx int) {
	rows := memmap.ScreenHeight
	width := memmap.ScreenWidth
	stride := memmap.BytesPerRow

	rowBits := make([]bool, width)
	for row := 0; row < rows; row++ {
		base := row * stride
		for x := 0; x < width; x++ {
			off := base + x/8
			rowBits[x] = c.Mem[wrap(buffer+off)]&pixelMask(x) != 0
		}
		shifted := make([]bool, width)
		for x := 0; x < width; x++ {
			fromX := x - dx
			if fromX >= 0 && fromX < width {
				shifted[x] = rowBits[fromX]
			}
		}
		for x := 0; x < width; x++ {
			off := base + x/8
			if shifted[x] {
				c.Mem[wrap(buffer+off)] |= pixelMask(x)
			} else {
				c.Mem[wrap(buffer+off)] &^= pixelMask(x)
			}
		}
	}
}

// grayscaleTable[front][back] gives, for every byte-pair of 8 packed
// pixels, the 8 per-pixel intensity levels (0..3) that pair encodes:
// a pixel set only in front is level 1, set only in back is level 2,
// set in both is level 3 (black), set in neither is level 0 (white).
// Precomputing this as a byte-pair table (rather than testing bit by
// bit per pixel at blit time) is the "byte-pair optimization table"
// spec.md §4.5 calls for.
var grayscaleTable [256][256][8]uint8

func init() {
	for front := 0; front < 256; front++ {
		for back := 0; back < 256; back++ {
			var levels [8]uint8
			for bit := 0; bit < 8; bit++ {
				mask := byte(1 << uint(7-bit))
				f := byte(front)&mask != 0
				b := byte(back)&mask != 0
				switch {
				case f && b:
					levels[bit] = 3
				case b:
					levels[bit] = 2
				case f:
					levels[bit] = 1
				default:
					levels[bit] = 0
				}
			}
			grayscaleTable[front][back] = levels
		}
	}
}

// DispGraph blends the primary and back buffers into one frame of
// per-pixel intensity levels via grayscaleTable, clamped to grayLevels
// (2, 3, or 4 per spec.md §4.2's DispGraph/^^r/^^r^^r forms), and hands
// it to the Display backend to paint at the given on-screen scale.
//
// grayLevels == 2 ignores the back buffer entirely (pure monochrome);
// 3 collapses the front-only and back-only cases to a single mid-tone
// (one bit of real gray data, as real hardware gets from one extra
// buffer); 4 uses the full four-level table.
func (c *Calculator) DispGraph(scale, grayLevels int) error {
	pixels := make([]uint8, memmap.ScreenWidth*memmap.ScreenHeight)
	for row := 0; row < memmap.ScreenHeight; row++ {
		rowBase := row * memmap.BytesPerRow
		for byteCol := 0; byteCol < memmap.BytesPerRow; byteCol++ {
			front := c.Mem[wrap(memmap.PrimaryBuffer+rowBase+byteCol)]
			back := c.Mem[wrap(memmap.BackBuffer+rowBase+byteCol)]
			if grayLevels <= 2 {
				back = front
			}
			levels := grayscaleTable[front][back]
			for bit := 0; bit < 8; bit++ {
				v := levels[bit]
				if grayLevels == 3 && v == 2 {
					v = 1
				}
				x := byteCol*8 + bit
				pixels[row*memmap.ScreenWidth+x] = v
			}
		}
	}
	return c.Display.Refresh(pixels, scale)
}

// IsKeyPressed reports whether the given Axe key code is currently
// held down.
func (c *Calculator) IsKeyPressed(code int) bool {
	return c.Display.IsKeyDown(code)
}

// IsAnyKeyPressed reports whether any non-lock key is currently held.
// Lock keys (ON) are excluded: a calculator held powered on must never
// look to a running program like "some key was just pressed".
func (c *Calculator) IsAnyKeyPressed() bool {
	for code := 1; code <= keymap.KeyOn; code++ {
		if keymap.LockKeys[code] {
			continue
		}
		if c.Display.IsKeyDown(code) {
			return true
		}
	}
	return false
}
