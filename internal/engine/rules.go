package engine

// axes 四条轴（横、竖、两条对角线），每条以正方向表示
var axes = [4]Coord{
	{Row: 0, Col: 1},  // 横
	{Row: 1, Col: 0},  // 竖
	{Row: 1, Col: 1},  // 主对角线
	{Row: 1, Col: -1}, // 副对角线
}

// MoveResult 一步落子的完整结果
type MoveResult struct {
	Row   int
	Col   int
	Color Color

	Lines   int        // 同时完成的连线数（0-4）
	Rank    MarkerRank // 形成的标记等级，Lines==0 时为空
	Removed []Coord    // 被吃掉的格子
	WinLine []Coord    // 获胜连线，未获胜为 nil
}

// CanPlace 落子是否合法：在棋盘内、格子为空、且不会形成超过 4 连的同色线
func (b Board) CanPlace(row, col int, color Color) bool {
	if !b.InBounds(row, col) || b[row][col] != nil {
		return false
	}
	return !b.WouldExceedLine(row, col, color)
}

// WouldExceedLine 模拟落子后，是否存在某条轴上的同色连子超过 4 个
func (b Board) WouldExceedLine(row, col int, color Color) bool {
	for _, d := range axes {
		count := 1
		count += b.runLength(row, col, d.Row, d.Col, color)
		count += b.runLength(row, col, -d.Row, -d.Col, color)
		if count > 4 {
			return true
		}
	}
	return false
}

// runLength 从 (row,col) 沿 (dr,dc) 方向的连续同色子数（不含起点）
func (b Board) runLength(row, col, dr, dc int, color Color) int {
	n := 0
	for r, c := row+dr, col+dc; b.InBounds(r, c) && b[r][c] != nil && b[r][c].Color == color; r, c = r+dr, c+dc {
		n++
	}
	return n
}

// Apply 落子并结算：吃子、标记升级、胜负连线检测。
// 调用方必须先用 CanPlace 验证，否则返回 false
func (b Board) Apply(row, col int, color Color) (*MoveResult, bool) {
	if !b.CanPlace(row, col, color) {
		return nil, false
	}

	b[row][col] = &Cell{Color: color}
	res := &MoveResult{Row: row, Col: col, Color: color}

	// 收集所有恰好 4 连的线
	lines := b.captureLines(row, col, color)
	res.Lines = len(lines)

	if len(lines) > 0 {
		// 吃掉连线中除新子和已有标记外的所有棋子
		for _, line := range lines {
			for _, pos := range line {
				if pos.Row == row && pos.Col == col {
					continue
				}
				cell := b[pos.Row][pos.Col]
				if cell != nil && !cell.Marker {
					res.Removed = append(res.Removed, pos)
					b[pos.Row][pos.Col] = nil
				}
			}
		}

		// 触发格升级为永久标记，等级等于同时完成的连线数
		res.Rank = rankByLines[len(lines)]
		b[row][col] = &Cell{Color: color, Marker: true, Rank: res.Rank}
	}

	// 胜负判定：新子所在位置任一轴上恰好 4 个同色标记
	res.WinLine = b.markerLine(row, col, color)

	return res, true
}

// captureLines 经过 (row,col) 的所有恰好 4 连同色线
func (b Board) captureLines(row, col int, color Color) [][]Coord {
	var lines [][]Coord
	for _, d := range axes {
		line := b.collectLine(row, col, d.Row, d.Col, color, func(c *Cell) bool {
			return c.Color == color
		})
		if len(line) == 4 {
			lines = append(lines, line)
		}
	}
	return lines
}

// markerLine 经过 (row,col) 的恰好 4 格同色标记线（等级无关），不存在返回 nil
func (b Board) markerLine(row, col int, color Color) []Coord {
	for _, d := range axes {
		line := b.collectLine(row, col, d.Row, d.Col, color, func(c *Cell) bool {
			return c.Marker && c.Color == color
		})
		if len(line) == 4 {
			return line
		}
	}
	return nil
}

// collectLine 沿某条轴收集经过 (row,col) 的连续格子（含起点），match 决定延伸条件
func (b Board) collectLine(row, col, dr, dc int, color Color, match func(*Cell) bool) []Coord {
	line := []Coord{{Row: row, Col: col}}

	for r, c := row+dr, col+dc; b.InBounds(r, c) && b[r][c] != nil && match(b[r][c]); r, c = r+dr, c+dc {
		line = append(line, Coord{Row: r, Col: c})
	}
	for r, c := row-dr, col-dc; b.InBounds(r, c) && b[r][c] != nil && match(b[r][c]); r, c = r-dr, c-dc {
		line = append([]Coord{{Row: r, Col: c}}, line...)
	}

	return line
}

// HasLegalMoves 某方是否还有合法落点
func (b Board) HasLegalMoves(color Color) bool {
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			if b.CanPlace(r, c, color) {
				return true
			}
		}
	}
	return false
}
