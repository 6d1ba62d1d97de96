package layout

// Baseline は行の y 座標がテキストのどこを指すかを表します。
type Baseline int

const (
	// BaselineTop は y が行の上端を指します（上段キャプション用）。
	BaselineTop Baseline = iota
	// BaselineBottom は y が行の下端を指します（下段キャプション用）。
	BaselineBottom
)

func (b Baseline) String() string {
	if b == BaselineBottom {
		return "bottom"
	}
	return "top"
}
