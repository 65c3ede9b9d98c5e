package room

// Lifecycle 房间生命周期
//
//	Forming -> ReadyToStart -> InProgress -> Concluded
//	Forming/ReadyToStart -> Cancelled（所有人离开或超时）
type Lifecycle int

const (
	LifecycleForming Lifecycle = iota
	LifecycleReadyToStart
	LifecycleInProgress
	LifecycleConcluded
	LifecycleCancelled
)

var lifecycleNames = map[Lifecycle]string{
	LifecycleForming:      "forming",
	LifecycleReadyToStart: "ready_to_start",
	LifecycleInProgress:   "in_progress",
	LifecycleConcluded:    "concluded",
	LifecycleCancelled:    "cancelled",
}

func (l Lifecycle) String() string {
	if name, ok := lifecycleNames[l]; ok {
		return name
	}
	return "unknown"
}

// Joinable 是否还能加入
func (l Lifecycle) Joinable() bool {
	return l == LifecycleForming
}
