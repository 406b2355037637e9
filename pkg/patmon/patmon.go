// Copyright 2023, Chef.  All rights reserved.
// https://github.com/q191201771/tspat
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

// Package patmon 持续输入一路TS流，跟踪其中PAT的变化
//
// mpegts.Pat 拿到完整的表之后就不再变化，版本更新需要由外层丢弃旧表重新采集，这个工作由 Monitor 完成
package patmon

import (
	"errors"
	"io"

	"github.com/q191201771/naza/pkg/nazalog"
	"github.com/q191201771/tspat/pkg/base"
	"github.com/q191201771/tspat/pkg/mpegts"
)

type MonitorOption struct {
	ProgramsMax int

	CheckGenerator   bool // 每张新表都执行 mpegts.Pat.CheckGenerator
	VerifyWithAstits bool // 每张新表都用astits重新解析并对比

	DumpDebugMaxNum int
	Log             nazalog.Logger
}

var defaultMonitorOption = MonitorOption{
	ProgramsMax: mpegts.PatProgramsMaxDefault,
}

type ModMonitorOption func(option *MonitorOption)

// OnPat 首次拿到PAT，以及之后PAT发生变化时回调
//
// 回调结束后pat依然由 Monitor 持有，变化后会被释放，所以不要在回调外保存
type OnPat func(pat *mpegts.Pat)

type Stat struct {
	TotalPackets  uint64
	PatPackets    uint64
	SkippedBytes  uint64 // 重新寻找sync byte时丢弃的字节
	Completes     uint64 // 校验通过的section数量，包含重复的
	Changes       uint64
	Resets        uint64
	InvalidStarts uint64
	CheckFaults   uint64
	AstitsFaults  uint64
}

type Monitor struct {
	option MonitorOption
	onPat  OnPat

	current *mpegts.Pat // 最近一张完整的表
	probe   *mpegts.Pat // 正在累积的表

	logDump base.LogDump
	stat    Stat
	remain  []byte
}

func NewMonitor(modOptions ...ModMonitorOption) *Monitor {
	option := defaultMonitorOption
	option.DumpDebugMaxNum = base.DumpDebugMaxNum
	for _, fn := range modOptions {
		fn(&option)
	}
	if option.Log == nil {
		option.Log = base.Log
	}

	m := &Monitor{
		option:  option,
		logDump: base.NewLogDump(option.Log, option.DumpDebugMaxNum),
	}
	m.probe = m.newPat()
	return m
}

func (m *Monitor) WithOnPat(onPat OnPat) *Monitor {
	m.onPat = onPat
	return m
}

// FeedTsPacket 输入一个188字节的ts packet
//
// @return: mpegts.Pat.Push 返回的错误，只用于观察，不需要处理
//
func (m *Monitor) FeedTsPacket(packet []byte) error {
	m.stat.TotalPackets++
	h, err := mpegts.ParseTsPacketHeader(packet)
	if err != nil || h.Pid != mpegts.PidPat {
		return nil
	}
	m.stat.PatPackets++

	var state mpegts.PatState
	m.probe, state, err = m.probe.Push(packet)
	if errors.Is(err, base.ErrSectionHeader) || errors.Is(err, base.ErrPatTableId) {
		m.stat.InvalidStarts++
	}

	switch state {
	case mpegts.PatStateReset:
		m.stat.Resets++
		m.option.Log.Warnf("pat reset. err=%+v", err)
	case mpegts.PatStateComplete:
		m.onComplete(m.probe)
		m.probe = m.newPat()
	}
	return err
}

// Feed 输入任意长度的TS流数据，不要求按packet对齐，不足一个packet的部分缓存到下次
func (m *Monitor) Feed(b []byte) {
	if len(m.remain) > 0 {
		m.remain = append(m.remain, b...)
		b = m.remain
	}

	packets, rest, skipped := SplitTsPackets(b)
	m.stat.SkippedBytes += uint64(skipped)
	for _, packet := range packets {
		_ = m.FeedTsPacket(packet)
	}

	m.remain = append([]byte(nil), rest...)
}

// FeedReader 读取r直到io.EOF
func (m *Monitor) FeedReader(r io.Reader) error {
	buf := make([]byte, mpegts.TsPacketSize*7)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			m.Feed(buf[:n])
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// Pat 最近一张完整的表，还没有时返回nil
func (m *Monitor) Pat() *mpegts.Pat {
	return m.current
}

func (m *Monitor) Stat() Stat {
	return m.stat
}

func (m *Monitor) Dispose() {
	if m.current != nil {
		m.current.Dispose()
		m.current = nil
	}
	m.probe.Dispose()
	m.remain = nil
}

// ----- private -------------------------------------------------------------------------------------------------------

func (m *Monitor) newPat() *mpegts.Pat {
	return mpegts.NewPat(func(option *mpegts.PatOption) {
		option.ProgramsMax = m.option.ProgramsMax
		option.Log = m.option.Log
	})
}

func (m *Monitor) onComplete(pat *mpegts.Pat) {
	m.stat.Completes++

	// PatIsSame 在b的version_number不为0时总是返回true，所以版本号单独比较
	if m.current != nil && m.current.VersionNumber() == pat.VersionNumber() && mpegts.PatIsSame(m.current, pat) {
		pat.Dispose()
		return
	}

	if m.current != nil {
		m.stat.Changes++
		m.option.Log.Infof("pat changed. version=%d->%d, programs=%d->%d",
			m.current.VersionNumber(), pat.VersionNumber(), m.current.NumPrograms(), pat.NumPrograms())
		m.current.Dispose()
	}
	m.current = pat

	if m.logDump.ShouldDump() {
		m.logDump.Outf("pat dump. completes=%d, changes=%d, version=%d", m.stat.Completes, m.stat.Changes, pat.VersionNumber())
		m.logDump.OutLines(pat.DumpString())
	}
	if m.option.CheckGenerator {
		if err := pat.CheckGenerator().Err(); err != nil {
			m.stat.CheckFaults++
		}
	}
	if m.option.VerifyWithAstits {
		if err := VerifyWithAstits(pat); err != nil {
			m.stat.AstitsFaults++
			m.option.Log.Errorf("verify with astits failed. err=%+v", err)
		}
	}

	if m.onPat != nil {
		m.onPat(pat)
	}
}
