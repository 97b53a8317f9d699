package engine

// Size 棋盘边长
const Size = 8

// Color 棋子颜色
type Color string

const (
	White Color = "white"
	Black Color = "black"
)

// Opponent 返回对方颜色
func (c Color) Opponent() Color {
	if c == White {
		return Black
	}
	return White
}

// MarkerRank 标记等级，由同时完成的连线数决定
type MarkerRank string

const (
	RankStandard  MarkerRank = "standard"
	RankDouble    MarkerRank = "double"
	RankTriple    MarkerRank = "triple"
	RankQuadruple MarkerRank = "quadruple"
)

// rankByLines 连线数 → 标记等级
var rankByLines = map[int]MarkerRank{
	1: RankStandard,
	2: RankDouble,
	3: RankTriple,
	4: RankQuadruple,
}

// Value 标记的分值（1-4）
func (r MarkerRank) Value() int {
	switch r {
	case RankDouble:
		return 2
	case RankTriple:
		return 3
	case RankQuadruple:
		return 4
	default:
		return 1
	}
}

// Cell 棋盘格子。nil 表示空格
type Cell struct {
	Color  Color      `json:"color"`
	Marker bool       `json:"is_marker"`
	Rank   MarkerRank `json:"marker_rank,omitempty"`
}

// Coord 棋盘坐标
type Coord struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Board 8×8 棋盘
type Board [][]*Cell

// NewBoard 创建空棋盘
func NewBoard() Board {
	b := make(Board, Size)
	for i := range b {
		b[i] = make([]*Cell, Size)
	}
	return b
}

// InBounds 坐标是否在棋盘内
func (b Board) InBounds(row, col int) bool {
	return row >= 0 && row < Size && col >= 0 && col < Size
}

// At 返回格子，越界返回 nil
func (b Board) At(row, col int) *Cell {
	if !b.InBounds(row, col) {
		return nil
	}
	return b[row][col]
}

// Clone 深拷贝棋盘
func (b Board) Clone() Board {
	nb := NewBoard()
	for r := range b {
		for c, cell := range b[r] {
			if cell != nil {
				cp := *cell
				nb[r][c] = &cp
			}
		}
	}
	return nb
}

// Score 某方所有标记的分值之和
func (b Board) Score(color Color) int {
	total := 0
	for r := range b {
		for _, cell := range b[r] {
			if cell != nil && cell.Marker && cell.Color == color {
				total += cell.Rank.Value()
			}
		}
	}
	return total
}

// OccupiedCount 已占用格子数（含标记）
func (b Board) OccupiedCount() int {
	n := 0
	for r := range b {
		for _, cell := range b[r] {
			if cell != nil {
				n++
			}
		}
	}
	return n
}
