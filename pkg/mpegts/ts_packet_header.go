// Copyright 2020, Chef.  All rights reserved.
// https://github.com/q191201771/tspat
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package mpegts

import (
	"fmt"

	"github.com/q191201771/naza/pkg/nazabits"
	"github.com/q191201771/tspat/pkg/base"
)

// ------------------------------------------------
// <iso13818-1.pdf> <2.4.3.2> <page 36/174>
// sync_byte                    [8b]  * always 0x47
// transport_error_indicator    [1b]
// payload_unit_start_indicator [1b]
// transport_priority           [1b]
// PID                          [13b] **
// transport_scrambling_control [2b]
// adaptation_field_control     [2b]
// continuity_counter           [4b]  *
// ------------------------------------------------
type TsPacketHeader struct {
	Sync             uint8
	Err              uint8
	PayloadUnitStart uint8
	Prio             uint8
	Pid              uint16
	Scra             uint8
	Adaptation       uint8
	Cc               uint8

	// 以下字段不在header的4字节中，是解析adaptation_field后得到的
	AdaptationLength uint8
	PayloadOffset    int // payload相对于packet起始位置的偏移
}

// ----------------------------------------------------------
// <iso13818-1.pdf> <Table 2-6> <page 40/174>
// adaptation_field_length              [8b] * 不包括自己这1字节
// discontinuity_indicator              [1b]
// random_access_indicator              [1b]
// ...
// ----------------------------------------------------------

// ParseTsPacketHeader 解析4字节TS Packet header，以及adaptation_field_length
//
// @param b: 完整的188字节ts packet
//
func ParseTsPacketHeader(b []byte) (h TsPacketHeader, err error) {
	if len(b) < TsPacketSize {
		return h, base.NewErrTsPacketSize(len(b))
	}
	if b[0] != SyncByte {
		return h, base.NewErrTsSyncByte(b[0])
	}

	br := nazabits.NewBitReader(b)
	h.Sync, _ = br.ReadBits8(8)
	h.Err, _ = br.ReadBits8(1)
	h.PayloadUnitStart, _ = br.ReadBits8(1)
	h.Prio, _ = br.ReadBits8(1)
	h.Pid, _ = br.ReadBits16(13)
	h.Scra, _ = br.ReadBits8(2)
	h.Adaptation, _ = br.ReadBits8(2)
	h.Cc, _ = br.ReadBits8(4)

	h.PayloadOffset = 4
	if h.Adaptation == AdaptationFieldControlOnly || h.Adaptation == AdaptationFieldControlFollowed {
		h.AdaptationLength = b[4]
		h.PayloadOffset += 1 + int(h.AdaptationLength)
		if h.PayloadOffset > TsPacketSize {
			return h, base.NewErrShortBuffer(h.PayloadOffset, TsPacketSize, "adaptation field")
		}
	}
	return
}

// HasPayload adaptation_field_control是否声明了payload
func (h *TsPacketHeader) HasPayload() bool {
	return h.Adaptation&0x1 != 0
}

// PackTsPacketHeader 将header的4字节写入out，不写adaptation_field
func PackTsPacketHeader(out []byte, h TsPacketHeader) {
	bw := nazabits.NewBitWriter(out)
	bw.WriteBits8(8, h.Sync)
	bw.WriteBits8(1, h.Err)
	bw.WriteBits8(1, h.PayloadUnitStart)
	bw.WriteBits8(1, h.Prio)
	bw.WriteBits16(13, h.Pid)
	bw.WriteBits8(2, h.Scra)
	bw.WriteBits8(2, h.Adaptation)
	bw.WriteBits8(4, h.Cc)
}

func (h *TsPacketHeader) DebugString() string {
	return fmt.Sprintf("pid=0x%04x, pusi=%d, err=%d, prio=%d, scra=%d, afc=%d, cc=%d, af_len=%d, payload_offset=%d",
		h.Pid, h.PayloadUnitStart, h.Err, h.Prio, h.Scra, h.Adaptation, h.Cc, h.AdaptationLength, h.PayloadOffset)
}
