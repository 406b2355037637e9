// Copyright 2020, Chef.  All rights reserved.
// https://github.com/q191201771/tspat
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package mpegts

import (
	"github.com/q191201771/naza/pkg/nazalog"
	"github.com/q191201771/tspat/pkg/base"
)

// ---------------------------------------------------------------------------------------------------
// Program association section
// <iso13818-1.pdf> <2.4.4.3> <page 61/174>
// table_id                 [8b] *
// section_syntax_indicator [1b]
// '0'                      [1b]
// reserved                 [2b]
// section_length           [12b] **
// transport_stream_id      [16b] **
// reserved                 [2b]
// version_number           [5b]
// current_next_indicator   [1b]  *
// section_number           [8b]  *
// last_section_number      [8b]  *
// -----loop-----
// program_number           [16b] **
// reserved                 [3b]
// program_map_PID          [13b] ** if program_number == 0 then network_PID else then program_map_PID
// --------------
// CRC_32                   [32b] ****
// ---------------------------------------------------------------------------------------------------

type PatOption struct {
	ProgramsMax int // 超出的program会被丢弃，并打印日志

	Log nazalog.Logger
}

var defaultPatOption = PatOption{
	ProgramsMax: PatProgramsMaxDefault,
}

type ModPatOption func(option *PatOption)

// PatState Push 之后表所处的状态
type PatState int

const (
	PatStateAssembling PatState = iota + 1 // 还未拿到完整的section
	PatStateComplete                       // 已经拿到校验通过的section，之后不再累积数据
	PatStateReset                          // crc校验失败，返回的是一张新的空表
)

func (s PatState) String() string {
	switch s {
	case PatStateAssembling:
		return "assembling"
	case PatStateComplete:
		return "complete"
	case PatStateReset:
		return "reset"
	}
	return "unknown"
}

type Pat struct {
	option PatOption

	// 当前section起始packet的header
	tsHeader TsPacketHeader

	section  *SectionData
	programs PatProgramList
	crc      uint32
	complete bool
}

func NewPat(modOptions ...ModPatOption) *Pat {
	option := defaultPatOption
	for _, fn := range modOptions {
		fn(&option)
	}
	if option.ProgramsMax <= 0 {
		option.ProgramsMax = PatProgramsMaxDefault
	}
	if option.Log == nil {
		option.Log = base.Log
	}

	return &Pat{
		option:   option,
		section:  NewSectionData(),
		programs: NewPatProgramList(option.ProgramsMax),
	}
}

// Push 输入一个ts packet
//
// 注意，调用方必须使用返回的 *Pat 替换之前持有的对象，crc校验失败时返回的是一张新的空表，旧表已被释放
//
// @param packet: 188字节的ts packet，PID不为0的packet直接忽略
//
// @return state: 见 PatState
// @return err:   起始packet的section header非法时，返回 base.ErrSectionHeader 或 base.ErrPatTableId，表的状态不变；
//                crc校验失败时，返回 base.ErrPatCrcMismatch，state为 PatStateReset
//
func (pat *Pat) Push(packet []byte) (*Pat, PatState, error) {
	h, err := ParseTsPacketHeader(packet)
	if err != nil || h.Pid != PidPat {
		return pat, pat.state(), nil
	}

	// 只在之前保存的header不是起始packet时才覆盖
	if pat.tsHeader.PayloadUnitStart == 0 {
		pat.tsHeader = h
	}

	if h.PayloadUnitStart == 1 {
		sh, err := ParseSectionHeader(packet, pat.tsHeader)
		if err == nil && sh.SectionSyntaxIndicator == 0 {
			err = base.ErrSectionHeader
		}
		if err == nil && sh.TableId != TsPsiIdPas {
			err = base.NewErrPatTableId(sh.TableId)
		}
		if err != nil {
			pat.option.Log.Debugf("invalid pat section start. err=%+v, header=%s", err, h.DebugString())
			pat.tsHeader = TsPacketHeader{}
			return pat, pat.state(), err
		}

		pat.section.SetHeader(sh)
	}

	if !pat.complete && pat.section.SectionSyntaxIndicator == 1 {
		pat.section.AddPacket(h, packet)
		if pat.section.IsComplete() {
			if err := pat.parse(); err != nil {
				return pat.reset(), PatStateReset, err
			}
			return pat, PatStateComplete, nil
		}
	}

	return pat, pat.state(), nil
}

func (pat *Pat) IsComplete() bool {
	return pat.complete
}

// Programs 按section中的顺序返回，调用方不应修改
func (pat *Pat) Programs() []PatProgram {
	return pat.programs.Programs()
}

func (pat *Pat) NumPrograms() int {
	return pat.programs.Len()
}

// Crc section末尾4字节，按 byte0 | byte1<<8 | byte2<<16 | byte3<<24 组合
func (pat *Pat) Crc() uint32 {
	return pat.crc
}

func (pat *Pat) TsHeader() TsPacketHeader {
	return pat.tsHeader
}

func (pat *Pat) SectionHeader() SectionHeader {
	return pat.section.SectionHeader
}

func (pat *Pat) TransportStreamId() uint16 {
	return pat.section.TableIdExtension
}

func (pat *Pat) VersionNumber() uint8 {
	return pat.section.VersionNumber
}

func (pat *Pat) CurrentNextIndicator() uint8 {
	return pat.section.CurrentNextIndicator
}

// PacketBytes 当前持有的ts packet，可能是接收到的原始数据，也可能是 RegeneratePackets 生成的
func (pat *Pat) PacketBytes() []byte {
	return pat.section.PacketBytes()
}

func (pat *Pat) NumPackets() int {
	return pat.section.NumPackets()
}

// SearchPid pid是否为某个program的PMT PID，或者NIT PID
func (pat *Pat) SearchPid(pid uint16) bool {
	for _, p := range pat.programs.Programs() {
		if p.Pid() == pid {
			return true
		}
	}
	return false
}

// NitPid program_number为0的条目
func (pat *Pat) NitPid() (uint16, bool) {
	for _, p := range pat.programs.Programs() {
		if p.IsNit() {
			return p.Pid(), true
		}
	}
	return 0, false
}

// InitSection 用于从零构造一张表，再调用 AddProgram 和 Generate
func (pat *Pat) InitSection(transportStreamId uint16, versionNumber uint8, currentNextIndicator uint8) {
	pat.section.SetHeader(SectionHeader{
		TableId:                TsPsiIdPas,
		SectionSyntaxIndicator: 1,
		Reserved1:              0x3,
		SectionLength:          sectionSyntaxOverhead,
		TableIdExtension:       transportStreamId,
		Reserved2:              0x3,
		VersionNumber:          versionNumber & 0x1F,
		CurrentNextIndicator:   currentNextIndicator & 0x1,
	})
	pat.tsHeader = TsPacketHeader{
		Sync:             SyncByte,
		PayloadUnitStart: 1,
		Pid:              PidPat,
		Adaptation:       AdaptationFieldControlNo,
		PayloadOffset:    4,
	}
}

// AddProgram reserved位填1
func (pat *Pat) AddProgram(programNumber uint16, pid uint16) error {
	return pat.programs.Push(NewPatProgram(programNumber, 0x7, pid))
}

// Dispose 释放持有的section数据和program列表，之后不应再使用
func (pat *Pat) Dispose() {
	pat.section.Dispose()
	pat.programs.Reset()
	pat.tsHeader = TsPacketHeader{}
	pat.crc = 0
	pat.complete = false
}

// ----- private -------------------------------------------------------------------------------------------------------

func (pat *Pat) state() PatState {
	if pat.complete {
		return PatStateComplete
	}
	return PatStateAssembling
}

// reset 新建一张空表，沿用之前的配置
func (pat *Pat) reset() *Pat {
	option := pat.option
	newPat := NewPat(func(o *PatOption) {
		*o = option
	})
	pat.Dispose()
	return newPat
}
