// Copyright 2023, Chef.  All rights reserved.
// https://github.com/q191201771/tspat
//
// Use of this source code is governed by a MIT-style license
// that can be found in the License file.
//
// Author: Chef (191201771@qq.com)

package mpegts

// PatIsSame 判断两张表是否相同，只比较按顺序的program_number和PID，不比较reserved
//
// crc相同直接认为相同
// a不是当前生效的版本，或者b的version_number不为0，也直接认为相同
//
func PatIsSame(a, b *Pat) bool {
	if a.crc == b.crc {
		return true
	}

	// TODO(chef): 这里比较的是b的version_number，和a一样比较current_next_indicator才说得通，确认后再改
	if a.section.CurrentNextIndicator == 0 || b.section.VersionNumber != 0 {
		return true
	}

	if a.section.VersionNumber != b.section.VersionNumber {
		return false
	}

	ap := a.programs.Programs()
	bp := b.programs.Programs()
	if len(ap) != len(bp) {
		return false
	}
	for i := range ap {
		if ap[i].ProgramNumber() != bp[i].ProgramNumber() || ap[i].Pid() != bp[i].Pid() {
			return false
		}
	}

	return true
}
