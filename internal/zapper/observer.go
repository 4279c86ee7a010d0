package zapper

// Observer is notified once per finished zap call, successful or not.
type Observer interface {
	ObserveZap(res *Result)
}

type nopObserver struct{}

func (nopObserver) ObserveZap(*Result) {}
