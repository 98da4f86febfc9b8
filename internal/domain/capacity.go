package domain

// RegistrationStatus 报名状态
type RegistrationStatus string

const (
	RegistrationPending    RegistrationStatus = "PENDING"
	RegistrationConfirmed  RegistrationStatus = "CONFIRMED"
	RegistrationWaitlisted RegistrationStatus = "WAITLISTED"
	RegistrationCancelled  RegistrationStatus = "CANCELLED"
)

// Valid 是否为已知状态
func (s RegistrationStatus) Valid() bool {
	switch s {
	case RegistrationPending, RegistrationConfirmed, RegistrationWaitlisted, RegistrationCancelled:
		return true
	}
	return false
}

// OccupiesCapacity 该状态是否计入活动占用
func (s RegistrationStatus) OccupiesCapacity() bool {
	return s == RegistrationConfirmed || s == RegistrationPending
}

// CapacityPolicy 参与名额判定的活动配置
type CapacityPolicy struct {
	Capacity         int
	MaxCapacity      *int
	WaitlistEnabled  bool
	RequiresApproval bool
}

// Occupancy 判定时刻的活动占用快照
type Occupancy struct {
	Occupying  int // 未取消的 CONFIRMED + PENDING
	Waitlisted int // WAITLISTED，占用候补区间
}

// DecideRegistrationStatus 为一批 n 个报名主体判定统一状态。
// 按固定顺序首个命中生效：需审批 → PENDING；Occupying+n ≤ Capacity → CONFIRMED；
// 候补开启且 Occupying+Waitlisted+n ≤ MaxCapacity → WAITLISTED；否则 ok=false。
func DecideRegistrationStatus(p CapacityPolicy, o Occupancy, n int) (status RegistrationStatus, ok bool) {
	if p.RequiresApproval {
		return RegistrationPending, true
	}
	if o.Occupying+n <= p.Capacity {
		return RegistrationConfirmed, true
	}
	if p.WaitlistEnabled && p.MaxCapacity != nil && o.Occupying+o.Waitlisted+n <= *p.MaxCapacity {
		return RegistrationWaitlisted, true
	}
	return "", false
}

// Availability 活动余量
type Availability struct {
	AvailableSpots int  `json:"available_spots"`
	WaitlistSpots  int  `json:"waitlist_spots"`
	CanRegister    bool `json:"can_register"`
	CanWaitlist    bool `json:"can_waitlist"`
}

// ComputeAvailability 计算单人报名视角下的余量
func ComputeAvailability(p CapacityPolicy, o Occupancy) Availability {
	a := Availability{AvailableSpots: max(p.Capacity-o.Occupying, 0)}
	if p.WaitlistEnabled && p.MaxCapacity != nil {
		a.WaitlistSpots = max(*p.MaxCapacity-max(o.Occupying, p.Capacity)-o.Waitlisted, 0)
	}
	a.CanRegister = a.AvailableSpots > 0 || p.RequiresApproval
	a.CanWaitlist = !a.CanRegister && a.WaitlistSpots > 0
	return a
}
