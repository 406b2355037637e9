// Copyright 2023, Chef.  All rights reserved.
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

// SectionHeader
//
// ---------------------------------------------------------------------------------------------------
// <iso13818-1.pdf> <2.4.4.3> <page 61/174>
// pointer_field            [8b]  * 只存在于pusi为1的packet
// table_id                 [8b]  *
// section_syntax_indicator [1b]
// '0'                      [1b]
// reserved                 [2b]
// section_length           [12b] **
// transport_stream_id      [16b] ** table_id_extension
// reserved                 [2b]
// version_number           [5b]
// current_next_indicator   [1b]  *
// section_number           [8b]  *
// last_section_number      [8b]  *
// ---------------------------------------------------------------------------------------------------
type SectionHeader struct {
	PointerField           uint8
	TableId                uint8
	SectionSyntaxIndicator uint8
	PrivateIndicator       uint8
	Reserved1              uint8
	SectionLength          uint16
	TableIdExtension       uint16
	Reserved2              uint8
	VersionNumber          uint8
	CurrentNextIndicator   uint8
	SectionNumber          uint8
	LastSectionNumber      uint8
}

// ParseSectionHeader 解析packet中section开始处的8字节
//
// @param h: 决定payload起始位置以及是否存在pointer_field的header，不一定是packet自己的header
//
func ParseSectionHeader(packet []byte, h TsPacketHeader) (sh SectionHeader, err error) {
	offset := h.PayloadOffset
	if h.PayloadUnitStart == 1 {
		if offset >= len(packet) {
			return sh, base.NewErrShortBuffer(offset+1, len(packet), "pointer field")
		}
		sh.PointerField = packet[offset]
		offset += 1 + int(sh.PointerField)
	}
	if offset+sectionHeaderLength > len(packet) {
		return sh, base.NewErrShortBuffer(offset+sectionHeaderLength, len(packet), "section header")
	}

	br := nazabits.NewBitReader(packet[offset:])
	sh.TableId, _ = br.ReadBits8(8)
	sh.SectionSyntaxIndicator, _ = br.ReadBits8(1)
	sh.PrivateIndicator, _ = br.ReadBits8(1)
	sh.Reserved1, _ = br.ReadBits8(2)
	sh.SectionLength, _ = br.ReadBits16(12)
	sh.TableIdExtension, _ = br.ReadBits16(16)
	sh.Reserved2, _ = br.ReadBits8(2)
	sh.VersionNumber, _ = br.ReadBits8(5)
	sh.CurrentNextIndicator, _ = br.ReadBits8(1)
	sh.SectionNumber, _ = br.ReadBits8(8)
	sh.LastSectionNumber, _ = br.ReadBits8(8)

	if sh.SectionSyntaxIndicator == 1 && (sh.SectionLength < sectionSyntaxOverhead || sh.SectionLength > maxPatSectionLength) {
		return sh, fmt.Errorf("%w. section_length=%d", base.ErrSectionHeader, sh.SectionLength)
	}
	return
}

// PackSectionHeader 将8字节section header写入out，不包含pointer_field
func PackSectionHeader(out []byte, sh SectionHeader) {
	bw := nazabits.NewBitWriter(out)
	bw.WriteBits8(8, sh.TableId)
	bw.WriteBits8(1, sh.SectionSyntaxIndicator)
	bw.WriteBits8(1, sh.PrivateIndicator)
	bw.WriteBits8(2, sh.Reserved1)
	bw.WriteBits16(12, sh.SectionLength)
	bw.WriteBits16(16, sh.TableIdExtension)
	bw.WriteBits8(2, sh.Reserved2)
	bw.WriteBits8(5, sh.VersionNumber)
	bw.WriteBits8(1, sh.CurrentNextIndicator)
	bw.WriteBits8(8, sh.SectionNumber)
	bw.WriteBits8(8, sh.LastSectionNumber)
}

// DataLen 整个section的字节数，从table_id到CRC_32
func (sh *SectionHeader) DataLen() int {
	return int(sh.SectionLength) + 3
}

// ProgramSectionLen 去掉5字节section header和4字节CRC_32后的长度
func (sh *SectionHeader) ProgramSectionLen() int {
	return int(sh.SectionLength) - sectionSyntaxOverhead
}

func (sh *SectionHeader) DebugString() string {
	return fmt.Sprintf("table_id=0x%02x, ssi=%d, private=%d, section_length=%d, table_id_extension=%d, version=%d, current_next=%d, section=%d/%d, pointer_field=%d",
		sh.TableId, sh.SectionSyntaxIndicator, sh.PrivateIndicator, sh.SectionLength, sh.TableIdExtension,
		sh.VersionNumber, sh.CurrentNextIndicator, sh.SectionNumber, sh.LastSectionNumber, sh.PointerField)
}

// ---------------------------------------------------------------------------------------------------------------------

// SectionData 将属于同一个section的多个ts packet的payload拼接起来
//
// 同时保存原始的ts packet，用于重新生成后的对比
//
type SectionData struct {
	SectionHeader

	sectionBytes []byte
	packetBytes  []byte
	numPackets   int
	complete     bool
}

func NewSectionData() *SectionData {
	return &SectionData{}
}

// SetHeader 更新section header字段，不影响已经累积的数据
func (sd *SectionData) SetHeader(sh SectionHeader) {
	sd.SectionHeader = sh
}

// AddPacket
//
// pusi为1的packet会丢弃之前未完成的数据，从pointer_field之后开始累积
// 没有遇到过起始packet时，后续packet直接丢弃
//
func (sd *SectionData) AddPacket(h TsPacketHeader, packet []byte) {
	if sd.complete || !h.HasPayload() || len(packet) < TsPacketSize {
		return
	}

	offset := h.PayloadOffset
	if h.PayloadUnitStart == 1 {
		if offset >= TsPacketSize {
			return
		}
		offset += 1 + int(packet[offset])
		sd.sectionBytes = sd.sectionBytes[:0]
		sd.packetBytes = sd.packetBytes[:0]
		sd.numPackets = 0
	} else if sd.numPackets == 0 {
		return
	}
	if offset > TsPacketSize {
		return
	}

	need := sd.DataLen() - len(sd.sectionBytes)
	payload := packet[offset:TsPacketSize]
	if len(payload) > need {
		payload = payload[:need]
	}
	sd.sectionBytes = append(sd.sectionBytes, payload...)
	sd.packetBytes = append(sd.packetBytes, packet[:TsPacketSize]...)
	sd.numPackets++

	if len(sd.sectionBytes) >= sd.DataLen() {
		sd.complete = true
	}
}

func (sd *SectionData) IsComplete() bool {
	return sd.complete
}

// SectionBytes 从table_id开始的section数据，完整后长度为 DataLen
func (sd *SectionData) SectionBytes() []byte {
	return sd.sectionBytes
}

// PacketBytes 构成该section的原始ts packet，长度为 NumPackets * TsPacketSize
func (sd *SectionData) PacketBytes() []byte {
	return sd.packetBytes
}

func (sd *SectionData) NumPackets() int {
	return sd.numPackets
}

// DataSize 目前已累积的section字节数
func (sd *SectionData) DataSize() int {
	return len(sd.sectionBytes)
}

// SetPacketBytes 替换持有的原始ts packet
func (sd *SectionData) SetPacketBytes(packets []byte) {
	sd.packetBytes = packets
	sd.numPackets = len(packets) / TsPacketSize
}

func (sd *SectionData) Dispose() {
	sd.SectionHeader = SectionHeader{}
	sd.sectionBytes = nil
	sd.packetBytes = nil
	sd.numPackets = 0
	sd.complete = false
}
