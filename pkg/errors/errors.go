package errors

import "errors"

// ErrOptimisticLock 乐观锁冲突：闹钟或计划已被其他操作修改，
// 持有旧 version 的更新被拒绝
var ErrOptimisticLock = errors.New("数据已被其他操作修改，请刷新后重试")
