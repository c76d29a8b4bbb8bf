// Package gdbremote is the one concrete monitor.Bridge adapter this system
// ships: it speaks GDB's remote serial protocol (RSP) directly over a TCP
// socket, using the qRcmd packet to pass monitor commands through to the
// emulator exactly as "monitor <cmd>" would from an attached gdb session.
//
// This is the one piece of the system with no ecosystem library to ground
// it on (see DESIGN.md); everything here is stdlib net + encoding/hex.
package gdbremote

import (
	"bufio"
	"context"
	"encoding/hex"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jihwankim/flipsim/pkg/registers"
)

// Client is a monitor.Bridge implementation backed by a live RSP connection.
type Client struct {
	mu   sync.Mutex
	conn net.Conn
	r    *bufio.Reader
}

// Dial connects to a GDB-remote-protocol endpoint (e.g. the address QEMU's
// "-gdb tcp::1234" exposes). It sends nothing on connect; the first packet
// goes out with the first request.
func Dial(ctx context.Context, addr string) (*Client, error) {
	d := net.Dialer{}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("gdbremote: dial %s: %w", addr, err)
	}
	c := &Client{conn: conn, r: bufio.NewReader(conn)}
	return c, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// checksum returns the RSP checksum of packet body (sum of bytes mod 256).
func checksum(body string) byte {
	var sum byte
	for i := 0; i < len(body); i++ {
		sum += body[i]
	}
	return sum
}

// sendPacket writes one RSP packet ("$body#cc") and waits for a '+' ack.
func (c *Client) sendPacket(body string) error {
	pkt := fmt.Sprintf("$%s#%02x", body, checksum(body))
	if _, err := c.conn.Write([]byte(pkt)); err != nil {
		return fmt.Errorf("gdbremote: write packet: %w", err)
	}
	ack, err := c.r.ReadByte()
	if err != nil {
		return fmt.Errorf("gdbremote: read ack: %w", err)
	}
	if ack != '+' {
		return fmt.Errorf("gdbremote: negative ack %q for packet %q", ack, pkt)
	}
	return nil
}

// readPacket reads one "$...#cc" packet and returns its body, acking it.
func (c *Client) readPacket() (string, error) {
	// Skip any leading acks/noise until '$'.
	for {
		b, err := c.r.ReadByte()
		if err != nil {
			return "", fmt.Errorf("gdbremote: read packet start: %w", err)
		}
		if b == '$' {
			break
		}
	}
	var body strings.Builder
	for {
		b, err := c.r.ReadByte()
		if err != nil {
			return "", fmt.Errorf("gdbremote: read packet body: %w", err)
		}
		if b == '#' {
			break
		}
		body.WriteByte(b)
	}
	// Consume the two-hex-digit checksum trailer.
	if _, err := c.r.Discard(2); err != nil {
		return "", fmt.Errorf("gdbremote: read packet checksum: %w", err)
	}
	if _, err := c.conn.Write([]byte{'+'}); err != nil {
		return "", fmt.Errorf("gdbremote: write ack: %w", err)
	}
	return body.String(), nil
}

// qRcmd sends a monitor command through GDB's "monitor passthrough" packet
// and returns its decoded textual reply. cmd is hex-encoded per the qRcmd
// wire format; the reply is a sequence of hex-encoded "O..." packets
// terminated by "OK" or an error code, decoded back into plain text.
func (c *Client) qRcmd(ctx context.Context, cmd string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if deadline, ok := ctx.Deadline(); ok {
		_ = c.conn.SetDeadline(deadline)
		defer c.conn.SetDeadline(time.Time{})
	}

	body := "qRcmd," + hex.EncodeToString([]byte(cmd))
	if err := c.sendPacket(body); err != nil {
		return "", err
	}

	var out strings.Builder
	for {
		reply, err := c.readPacket()
		if err != nil {
			return "", err
		}
		switch {
		case reply == "OK" || reply == "":
			return out.String(), nil
		case strings.HasPrefix(reply, "E"):
			return "", fmt.Errorf("gdbremote: monitor command %q failed: %s", cmd, reply)
		case strings.HasPrefix(reply, "O"):
			decoded, err := hex.DecodeString(reply[1:])
			if err != nil {
				return "", fmt.Errorf("gdbremote: decoding reply chunk: %w", err)
			}
			out.Write(decoded)
		default:
			return "", fmt.Errorf("gdbremote: unexpected reply %q", reply)
		}
	}
}

// HMP implements monitor.Bridge.
func (c *Client) HMP(ctx context.Context, cmd string) (string, error) {
	return c.qRcmd(ctx, cmd)
}

// ReadMem implements monitor.Bridge via the "m addr,length" RSP packet.
func (c *Client) ReadMem(ctx context.Context, addr uint64, length int) ([]byte, error) {
	c.mu.Lock()
	body := fmt.Sprintf("m%x,%x", addr, length)
	if err := c.sendPacket(body); err != nil {
		c.mu.Unlock()
		return nil, err
	}
	reply, err := c.readPacket()
	c.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if strings.HasPrefix(reply, "E") {
		return nil, fmt.Errorf("gdbremote: read_mem 0x%x,%d failed: %s", addr, length, reply)
	}
	data, err := hex.DecodeString(reply)
	if err != nil {
		return nil, fmt.Errorf("gdbremote: decoding memory reply: %w", err)
	}
	return data, nil
}

// WriteMem implements monitor.Bridge via the "M addr,length:data" RSP packet.
func (c *Client) WriteMem(ctx context.Context, addr uint64, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	body := fmt.Sprintf("M%x,%x:%s", addr, len(data), hex.EncodeToString(data))
	if err := c.sendPacket(body); err != nil {
		return err
	}
	reply, err := c.readPacket()
	if err != nil {
		return err
	}
	if reply != "OK" {
		return fmt.Errorf("gdbremote: write_mem 0x%x failed: %s", addr, reply)
	}
	return nil
}

// ReadReg reads the named register by evaluating "$name" through Eval's
// "print/x" passthrough for scalars, or a typed-expression eval for a
// vector half.
func (c *Client) ReadReg(ctx context.Context, name string, half int) (uint64, error) {
	expr := "$" + name
	if half != 0 || strings.Contains(name, "v") {
		expr = fmt.Sprintf("((int64_t[2])$%s)[%d]", name, half)
	}
	return c.Eval(ctx, expr)
}

// WriteReg writes value into the named register via a "set $name = value"
// monitor passthrough, or the typed vector-half expression form.
func (c *Client) WriteReg(ctx context.Context, name string, half int, value uint64) error {
	var cmd string
	if half != 0 || strings.Contains(name, "v") {
		cmd = fmt.Sprintf("set variable ((int64_t[2])$%s)[%d] = %d", name, half, value)
	} else {
		cmd = fmt.Sprintf("set $%s = %d", name, value)
	}
	_, err := c.qRcmd(ctx, cmd)
	return err
}

// Eval evaluates a debugger expression through a "print/x <expr>" monitor
// passthrough and parses the resulting hex literal.
func (c *Client) Eval(ctx context.Context, expr string) (uint64, error) {
	out, err := c.qRcmd(ctx, fmt.Sprintf("print/x %s", expr))
	if err != nil {
		return 0, err
	}
	// Typical reply shape: "$1 = 0x1234\n"
	idx := strings.Index(out, "0x")
	if idx < 0 {
		return 0, fmt.Errorf("gdbremote: no hex value in eval reply %q", out)
	}
	rest := strings.TrimSpace(out[idx+2:])
	for i, r := range rest {
		if !strings.ContainsRune("0123456789abcdefABCDEF", r) {
			rest = rest[:i]
			break
		}
	}
	v, err := strconv.ParseUint(rest, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("gdbremote: parsing eval reply %q: %w", out, err)
	}
	return v, nil
}

// SendSerial writes raw bytes to the guest's serial port via the monitor's
// "sendkey"/character-injection passthrough.
func (c *Client) SendSerial(ctx context.Context, data []byte) error {
	_, err := c.qRcmd(ctx, fmt.Sprintf("sendkey %s", hex.EncodeToString(data)))
	return err
}

// ListRegisters implements registers.FrameLister by parsing the monitor's
// "info all-registers" output into (name, type) pairs. The type strings
// here follow the original implementation's architecture frame report.
func (c *Client) ListRegisters(ctx context.Context) ([]registers.RawRegister, error) {
	out, err := c.qRcmd(ctx, "info all-registers")
	if err != nil {
		return nil, fmt.Errorf("gdbremote: listing registers: %w", err)
	}
	var regs []registers.RawRegister
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		regs = append(regs, registers.RawRegister{Name: fields[0], Type: fields[1]})
	}
	return regs, nil
}
