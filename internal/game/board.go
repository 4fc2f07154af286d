package game

// BoardSize is the edge length of the square grid.
const BoardSize = 3

type Cell int

const (
	Empty Cell = iota
	FirstMover
	SecondMover
)

// Board is indexed [x][y]. It is a value type; copies are independent.
type Board [BoardSize][BoardSize]Cell

func inBounds(x, y int) bool {
	return x >= 0 && x < BoardSize && y >= 0 && y < BoardSize
}

// Full reports whether no cell is empty.
func (b *Board) Full() bool {
	for x := range b {
		for y := range b[x] {
			if b[x][y] == Empty {
				return false
			}
		}
	}
	return true
}

// lines lists every row, column and diagonal as coordinate triples.
var lines = func() [][BoardSize][2]int {
	var out [][BoardSize][2]int
	for i := 0; i < BoardSize; i++ {
		var row, col [BoardSize][2]int
		for j := 0; j < BoardSize; j++ {
			row[j] = [2]int{i, j}
			col[j] = [2]int{j, i}
		}
		out = append(out, row, col)
	}
	var diag, anti [BoardSize][2]int
	for i := 0; i < BoardSize; i++ {
		diag[i] = [2]int{i, i}
		anti[i] = [2]int{i, BoardSize - 1 - i}
	}
	return append(out, diag, anti)
}()

// WinningLines returns the owner of every uniform, non-empty line. A board
// reached through legal play has at most one distinct owner here.
func (b *Board) WinningLines() []Cell {
	var owners []Cell
	for _, line := range lines {
		first := b[line[0][0]][line[0][1]]
		if first == Empty {
			continue
		}
		uniform := true
		for _, p := range line[1:] {
			if b[p[0]][p[1]] != first {
				uniform = false
				break
			}
		}
		if uniform {
			owners = append(owners, first)
		}
	}
	return owners
}

// Winner returns the owner of the first winning line found, or Empty.
func (b *Board) Winner() Cell {
	if owners := b.WinningLines(); len(owners) > 0 {
		return owners[0]
	}
	return Empty
}

// Ints converts the board into the wire representation.
func (b *Board) Ints() [BoardSize][BoardSize]int {
	var out [BoardSize][BoardSize]int
	for x := range b {
		for y := range b[x] {
			out[x][y] = int(b[x][y])
		}
	}
	return out
}
