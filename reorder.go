package codexfs

// reorderFiles computes a deterministic permutation of files that tries to
// place similar files next to each other, so the compression pipeline's
// fixed-size blocks see more redundancy. It is a heuristic: no
// exactness guarantee, but identical inputs must produce identical output.
func reorderFiles(files []*Inode) []*Inode {
	n := len(files)
	if n <= 1 {
		return append([]*Inode(nil), files...)
	}

	d := buildDistanceMatrix(files)
	start := seedStart(d, n)
	path := nearestNeighborSeed(d, n, start)
	twoOpt(d, path)

	out := make([]*Inode, n)
	for i, idx := range path {
		out[i] = files[idx]
	}
	return out
}

func buildDistanceMatrix(files []*Inode) [][]int {
	n := len(files)
	d := make([][]int, n)
	for i := range d {
		d[i] = make([]int, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			dist := distance(files[i].File.digest, files[j].File.digest)
			d[i][j] = dist
			d[j][i] = dist
		}
	}
	return d
}

// seedStart picks argmin over rows of the row sum, the
// lowest index winning ties for determinism.
func seedStart(d [][]int, n int) int {
	best, bestSum := 0, rowSum(d, 0)
	for i := 1; i < n; i++ {
		s := rowSum(d, i)
		if s < bestSum {
			best, bestSum = i, s
		}
	}
	return best
}

func rowSum(d [][]int, i int) int {
	sum := 0
	for _, v := range d[i] {
		sum += v
	}
	return sum
}

// nearestNeighborSeed builds the initial path by dual-end nearest neighbor
//: maintain a deque, at each step extend whichever end
// has the smaller nearest-unvisited distance, ties favoring the front.
func nearestNeighborSeed(d [][]int, n, start int) []int {
	visited := make([]bool, n)
	visited[start] = true
	path := make([]int, 1, n)
	path[0] = start

	for len(path) < n {
		front, back := path[0], path[len(path)-1]
		frontIdx, frontDist := nearestUnvisited(d, front, visited)
		backIdx, backDist := nearestUnvisited(d, back, visited)

		if frontDist <= backDist {
			visited[frontIdx] = true
			path = append([]int{frontIdx}, path...)
		} else {
			visited[backIdx] = true
			path = append(path, backIdx)
		}
	}
	return path
}

func nearestUnvisited(d [][]int, from int, visited []bool) (int, int) {
	best, bestDist := -1, -1
	for j, v := range d[from] {
		if visited[j] {
			continue
		}
		if best == -1 || v < bestDist {
			best, bestDist = j, v
		}
	}
	return best, bestDist
}

// twoOpt repeatedly reverses path segments that reduce total path distance
//, restarting the scan after every improving swap, until
// no improving swap exists.
func twoOpt(d [][]int, path []int) {
	n := len(path)
	for {
		improved := false
		for i := 0; i+1 < n; i++ {
			for j := i + 2; j < n; j++ {
				before := d[path[i]][path[i+1]] + d[path[j-1]][path[j]]
				after := d[path[i]][path[j-1]] + d[path[i+1]][path[j]]
				if after < before {
					reverse(path, i+1, j-1)
					improved = true
					break
				}
			}
			if improved {
				break
			}
		}
		if !improved {
			return
		}
	}
}

func reverse(path []int, i, j int) {
	for i < j {
		path[i], path[j] = path[j], path[i]
		i++
		j--
	}
}
