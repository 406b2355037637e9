// Copyright 2023, Chef.  All rights reserved.
// https://github.com/q191201771/tspat
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package mpegts_test

import (
	"fmt"

	"github.com/q191201771/naza/pkg/nazalog"
	"github.com/q191201771/tspat/pkg/mpegts"
)

// ffmpeg默认输出的PAT，transport_stream_id为1，program 1 -> PMT PID 0x1000
var ffmpegPatPacket = func() []byte {
	b := make([]byte, mpegts.TsPacketSize)
	for i := range b {
		b[i] = 0xFF
	}
	copy(b, []byte{
		0x47, 0x40, 0x00, 0x10, 0x00,
		0x00, 0xB0, 0x0D, 0x00, 0x01, 0xC1, 0x00, 0x00,
		0x00, 0x01, 0xF0, 0x00,
		0x2A, 0xB1, 0x04, 0xB2,
	})
	return b
}()

// buildPatSection 构造从table_id到CRC_32的完整section，reserved位全部填1
func buildPatSection(tsid uint16, version uint8, currentNext uint8, programs [][2]uint16) []byte {
	sl := 5 + 4*len(programs) + 4
	b := make([]byte, 3+sl)
	b[0] = 0x00
	b[1] = 0xB0 | byte(sl>>8)
	b[2] = byte(sl)
	b[3] = byte(tsid >> 8)
	b[4] = byte(tsid)
	b[5] = 0xC0 | (version&0x1F)<<1 | (currentNext & 0x1)
	b[6] = 0
	b[7] = 0
	for i, p := range programs {
		b[8+4*i] = byte(p[0] >> 8)
		b[9+4*i] = byte(p[0])
		b[10+4*i] = 0xE0 | byte(p[1]>>8)
		b[11+4*i] = byte(p[1])
	}
	crc := mpegts.CalcCrc32(mpegts.Crc32Init, b[:len(b)-4])
	b[len(b)-4] = byte(crc >> 24)
	b[len(b)-3] = byte(crc >> 16)
	b[len(b)-2] = byte(crc >> 8)
	b[len(b)-1] = byte(crc)
	return b
}

// buildTsPackets 按PID 0切割section，pointer_field为0，不带adaptation_field，剩余空间填0xFF
func buildTsPackets(section []byte, cc uint8) []byte {
	var out []byte
	first := true
	for len(section) > 0 || first {
		packet := make([]byte, mpegts.TsPacketSize)
		for i := range packet {
			packet[i] = 0xFF
		}
		packet[0] = 0x47
		packet[1] = 0x00
		if first {
			packet[1] = 0x40
		}
		packet[2] = 0x00
		packet[3] = 0x10 | (cc & 0x0F)
		wpos := 4
		if first {
			packet[4] = 0x00
			wpos++
		}
		n := copy(packet[wpos:], section)
		section = section[n:]
		out = append(out, packet...)
		cc++
		first = false
	}
	return out
}

func buildPatPackets(tsid uint16, version uint8, currentNext uint8, programs [][2]uint16) []byte {
	return buildTsPackets(buildPatSection(tsid, version, currentNext, programs), 0)
}

func pushAll(pat *mpegts.Pat, packets []byte) (*mpegts.Pat, mpegts.PatState, error) {
	var (
		state   mpegts.PatState
		err     error
		lastErr error
	)
	for i := 0; i+mpegts.TsPacketSize <= len(packets); i += mpegts.TsPacketSize {
		pat, state, err = pat.Push(packets[i : i+mpegts.TsPacketSize])
		if err != nil {
			lastErr = err
		}
	}
	return pat, state, lastErr
}

func programPairs(pat *mpegts.Pat) (ret [][2]uint16) {
	for _, p := range pat.Programs() {
		ret = append(ret, [2]uint16{p.ProgramNumber(), p.Pid()})
	}
	return
}

func makePrograms(n int) (ret [][2]uint16) {
	for i := 0; i < n; i++ {
		ret = append(ret, [2]uint16{uint16(i + 1), uint16(0x100 + i)})
	}
	return
}

// recordLogger 记录warn日志，其余日志交给全局logger
type recordLogger struct {
	nazalog.Logger
	warns []string
}

func newRecordLogger() *recordLogger {
	return &recordLogger{Logger: nazalog.GetGlobalLogger()}
}

func (l *recordLogger) Warnf(format string, v ...interface{}) {
	l.warns = append(l.warns, fmt.Sprintf(format, v...))
}
