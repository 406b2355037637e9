// Copyright 2023, Chef.  All rights reserved.
// https://github.com/q191201771/tspat
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package mpegts

import (
	"github.com/q191201771/naza/pkg/bele"
	"github.com/q191201771/tspat/pkg/base"
)

// PatProgram 一个program条目在section中的4字节原始数据
//
// program_number  [16b] xxxxxxxx xxxxxxxx
// reserved        [3b]  xxx11111
// PID             [13b] 111xxxxx xxxxxxxx
//
type PatProgram [patProgramLength]byte

func NewPatProgram(programNumber uint16, reserved uint8, pid uint16) (p PatProgram) {
	bele.BePutUint16(p[0:], programNumber)
	p[2] = (reserved&0x7)<<5 | uint8((pid>>8)&0x1F)
	p[3] = uint8(pid & 0xFF)
	return
}

func (p PatProgram) ProgramNumber() uint16 {
	return bele.BeUint16(p[0:])
}

func (p PatProgram) Reserved() uint8 {
	return p[2] >> 5
}

// Pid program_number为0时是network_PID，否则是program_map_PID
func (p PatProgram) Pid() uint16 {
	return bele.BeUint16(p[2:]) & 0x1FFF
}

// IsNit program_number为0的条目指向NIT，而不是一个program
func (p PatProgram) IsNit() bool {
	return p.ProgramNumber() == 0
}

// ---------------------------------------------------------------------------------------------------------------------

// PatProgramList 容量固定的program列表
type PatProgramList struct {
	programs []PatProgram
	max      int
}

func NewPatProgramList(max int) PatProgramList {
	return PatProgramList{max: max}
}

// Push 已满时返回 base.ErrPatProgramsFull，列表不变
func (l *PatProgramList) Push(p PatProgram) error {
	if len(l.programs) >= l.max {
		return base.NewErrPatProgramsFull(l.max)
	}
	l.programs = append(l.programs, p)
	return nil
}

func (l *PatProgramList) Len() int {
	return len(l.programs)
}

func (l *PatProgramList) Max() int {
	return l.max
}

func (l *PatProgramList) Programs() []PatProgram {
	return l.programs
}

func (l *PatProgramList) Reset() {
	l.programs = nil
}

// ---------------------------------------------------------------------------------------------------------------------

// parse 将累积完整的section解析到 programs 和 crc
//
// 只有重新计算的crc为0时，才会标记为complete
//
func (pat *Pat) parse() error {
	data := pat.section.SectionBytes()
	if len(data) < sectionHeaderLength+4 {
		return base.NewErrShortBuffer(sectionHeaderLength+4, len(data), "pat section")
	}
	crcPos := len(data) - 4

	pos := sectionHeaderLength
	sectionLen := pat.section.ProgramSectionLen()
	for sectionLen > 0 && pos+patProgramLength <= crcPos {
		var p PatProgram
		copy(p[:], data[pos:pos+patProgramLength])
		if err := pat.programs.Push(p); err != nil {
			pat.option.Log.Warnf("PAT contains too many programs (>%d), not all are initialized! err=%+v", pat.programs.Max(), err)
			break
		}

		pos += patProgramLength
		sectionLen -= patProgramLength
	}

	// 注意，这里是按小端组合的，和section中CRC_32的大端位序不同，保持不变
	pat.crc = bele.LeUint32(data[crcPos:])

	checkCrc := CalcCrc32(Crc32Init, data)
	if checkCrc != 0 {
		err := base.NewErrPatCrcMismatch(checkCrc, pat.crc)
		pat.option.Log.Warnf("!!! Wrong PAT CRC! It should be 0 but it is %08x (CRC in data is 0x%08x)", checkCrc, pat.crc)
		return err
	}

	pat.complete = true
	return nil
}

// Generate 将当前的program列表编码成section，再切割成ts packet
//
// section_length按program数量重新计算，其余section header字段沿用
// 同时会更新 Crc 的值
//
// @return packets: 长度为 numPackets * TsPacketSize
//
func (pat *Pat) Generate() (packets []byte, numPackets int) {
	packets, pat.crc = pat.encode()
	return packets, len(packets) / TsPacketSize
}

// RegeneratePackets 用 Generate 的结果替换当前持有的ts packet
func (pat *Pat) RegeneratePackets() {
	packets, _ := pat.Generate()
	pat.section.SetPacketBytes(packets)
}

// encode 生成ts packet以及对应的 Crc 值，不修改表
func (pat *Pat) encode() (packets []byte, crc uint32) {
	programs := pat.programs.Programs()

	sh := pat.section.SectionHeader
	sh.SectionLength = uint16(sectionSyntaxOverhead + patProgramLength*len(programs))

	secData := make([]byte, sh.DataLen())
	PackSectionHeader(secData, sh)
	pos := sectionHeaderLength
	for _, p := range programs {
		bele.BePutUint16(secData[pos:], p.ProgramNumber())
		secData[pos+2] = p.Reserved() << 5
		secData[pos+2] |= uint8(p.Pid() >> 8)
		secData[pos+3] = uint8(p.Pid() & 0xFF)
		pos += patProgramLength
	}

	bele.BePutUint32(secData[pos:], CalcCrc32(Crc32Init, secData[:pos]))
	crc = bele.LeUint32(secData[pos:])

	return SplitSectionToTsPackets(pat.tsHeader, secData, sh.PointerField), crc
}
