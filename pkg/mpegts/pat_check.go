// Copyright 2023, Chef.  All rights reserved.
// https://github.com/q191201771/tspat
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package mpegts

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/q191201771/naza/pkg/nazabytes"
	"github.com/q191201771/naza/pkg/nazaerrors"
	"github.com/q191201771/tspat/pkg/base"
)

// Copy 将当前持有的ts packet重新输入一张新表
//
// @return: 新表没有完整时返回nil
//
func (pat *Pat) Copy() *Pat {
	option := pat.option
	newPat := NewPat(func(o *PatOption) {
		*o = option
	})

	packets := pat.section.PacketBytes()
	for i := 0; i < pat.section.NumPackets(); i++ {
		newPat, _, _ = newPat.Push(packets[i*TsPacketSize : (i+1)*TsPacketSize])
	}
	if newPat.complete {
		return newPat
	}

	pat.option.Log.Errorf("Error copying PAT!")
	newPat.Dispose()
	return nil
}

// PatCheckResult CheckGenerator 的结果，两个方向的错误互相独立
type PatCheckResult struct {
	DecodeErr error // ts packet -> struct -> ts packet
	EncodeErr error // struct -> ts packet
}

func (r PatCheckResult) Err() error {
	return nazaerrors.CombineErrors(r.DecodeErr, r.EncodeErr)
}

// CheckGenerator 自检
//
// 1. 将持有的ts packet重新解析成一张新表，新表持有的ts packet需要和原来的完全一致
// 2. 将当前的program列表重新生成ts packet，需要和持有的ts packet完全一致
//
// 不一致只打印日志并返回，不影响表本身，Crc 保持为section中原有的值
//
func (pat *Pat) CheckGenerator() (ret PatCheckResult) {
	if !pat.complete {
		ret.DecodeErr = base.ErrPatNotComplete
		ret.EncodeErr = base.ErrPatNotComplete
		return
	}

	held := pat.section.PacketBytes()

	if pat1 := pat.Copy(); pat1 != nil {
		if i := firstDiff(pat1.section.PacketBytes(), held); i >= 0 {
			ret.DecodeErr = base.NewErrPatDecodeFault(i)
			pat.option.Log.Errorf("PAT (tspacket->struct) data mismatch. err=%+v", ret.DecodeErr)
		}
		pat1.Dispose()
	} else {
		ret.DecodeErr = fmt.Errorf("%w. copy not complete", base.ErrPatDecodeFault)
	}

	packets, _ := pat.encode()
	numPackets := len(packets) / TsPacketSize
	if numPackets != pat.section.NumPackets() {
		pat.option.Log.Errorf("ERROR: num_packets:%d != sec->num_packets:%d", numPackets, pat.section.NumPackets())
	}
	if i := firstDiff(held, packets); i >= 0 {
		ret.EncodeErr = base.NewErrPatEncodeFault(i)
		pat.option.Log.Errorf("PAT (struct->tspacket) data mismatch. err=%+v, expected=\n%s, actual=\n%s",
			ret.EncodeErr, hex.Dump(nazabytes.Prefix(held[diffPacketStart(i):], TsPacketSize)),
			hex.Dump(nazabytes.Prefix(packets[diffPacketStart(i):], TsPacketSize)))
	}
	return
}

// DumpString 表的文本描述，program_number为0的条目额外标注NIT
func (pat *Pat) DumpString() string {
	var sb strings.Builder
	sb.WriteString("PAT packet\n")

	packets := pat.section.PacketBytes()
	for i := 0; i < pat.section.NumPackets(); i++ {
		h, err := ParseTsPacketHeader(packets[i*TsPacketSize:])
		if err != nil {
			_, _ = fmt.Fprintf(&sb, "  * TS packet header: err=%+v\n", err)
			continue
		}
		_, _ = fmt.Fprintf(&sb, "  * TS packet header: %s\n", h.DebugString())
	}
	_, _ = fmt.Fprintf(&sb, "  * Section header: %s\n", pat.section.SectionHeader.DebugString())

	programs := pat.programs.Programs()
	sb.WriteString("  * PAT data\n")
	_, _ = fmt.Fprintf(&sb, "    * num_programs: %d\n", len(programs))
	for i, p := range programs {
		_, _ = fmt.Fprintf(&sb, "      * [%02d/%02d]: Program No 0x%04x (%5d) -> PID %04x (%d) /res: 0x%02x/\n",
			i+1, len(programs), p.ProgramNumber(), p.ProgramNumber(), p.Pid(), p.Pid(), p.Reserved())
		if p.IsNit() {
			_, _ = fmt.Fprintf(&sb, "      - NIT PID %04x (%d)\n", p.Pid(), p.Pid())
		}
	}
	_, _ = fmt.Fprintf(&sb, "  * CRC 0x%08x\n", pat.crc)
	return sb.String()
}

// Dump 打印 DumpString 的内容，并执行 CheckGenerator
func (pat *Pat) Dump() PatCheckResult {
	for _, line := range strings.Split(strings.TrimRight(pat.DumpString(), "\n"), "\n") {
		pat.option.Log.Infof("%s", line)
	}
	return pat.CheckGenerator()
}

// ----- private -------------------------------------------------------------------------------------------------------

// firstDiff 返回第一个不同字节的位置，完全相同时返回-1
func firstDiff(a, b []byte) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	if len(a) != len(b) {
		return n
	}
	return -1
}

func diffPacketStart(i int) int {
	return i / TsPacketSize * TsPacketSize
}
