package models

type IgnoreTask struct {
	Vuln   Vulnerability
	Reason string
	Days   int
}

type TaskBuckets struct {
	Ignore []IgnoreTask
	Update []Vulnerability
	Patch  []Vulnerability
	Skip   []Vulnerability
}

func (t TaskBuckets) Empty() bool {
	return len(t.Ignore) == 0 && len(t.Update) == 0 && len(t.Patch) == 0
}

type HookRequests struct {
	Monitor    bool
	AddTest    bool
	AddProtect bool
}

func (h HookRequests) AnyHook() bool {
	return h.AddTest || h.AddProtect
}
