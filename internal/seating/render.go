package seating

import (
	"bufio"
	"fmt"
	"io"

	"github.com/fatih/color"
)

// Render 按座位顺序输出座位表，每行座位占一行，共用同一条过道的两行之间不空行
// 被安排了多个座位的员工后面带有 *，conflicts 为 生效的冲突/所有冲突
func Render(w io.Writer, ev *Evaluator, c *Chromosome, colored bool) error {
	conflictColor := color.New(color.FgHiRed)
	duplicateColor := color.New(color.FgYellow)
	emptyColor := color.New(color.FgHiBlack)
	if !colored {
		conflictColor.DisableColor()
		duplicateColor.DisableColor()
		emptyColor.DisableColor()
	}

	conflicts := ev.ConflictCounts(c)
	occurrences := ev.OccurrenceCounts(c)
	world := ev.world

	bw := bufio.NewWriter(w)
	currentRow := -1
	for i := 0; i < min(c.Len(), world.Size()); i++ {
		desk := world.desks[i]
		if desk.Row != currentRow {
			if currentRow != -1 {
				fmt.Fprintln(bw)
			}
			// A 区偶数行、B 区奇数行是一组的开头
			if currentRow != -1 && ((inZoneA(desk.Row) && desk.Row%2 == 0) || (inZoneB(desk.Row) && desk.Row%2 == 1)) {
				fmt.Fprintln(bw)
			}
			fmt.Fprintf(bw, "第 %d 行: ", desk.Row)
			currentRow = desk.Row
		}

		p := ev.person(c, i)
		if p == nil {
			fmt.Fprintf(bw, "%s  | ", conflictColor.Sprintf("<未知员工 %d>", c.At(i)))
			continue
		}

		name := p.Name
		switch {
		case occurrences[p.Index] > 1:
			name = duplicateColor.Sprint(name + "*")
		case p.Empty:
			name = emptyColor.Sprint(name + " ")
		default:
			name += " "
		}

		stat := fmt.Sprintf("conflicts: %d/%d", conflicts[i], len(p.conflicts))
		if conflicts[i] > 0 {
			stat = conflictColor.Sprint(stat)
		}

		fmt.Fprintf(bw, "%s(编号: %d, 团队: %d, %s)  | ", name, p.Index, p.Team, stat)
	}

	fmt.Fprintln(bw)
	fmt.Fprintln(bw, "* 表示该员工被安排了多个座位")
	return bw.Flush()
}

// RenderConflicts 列出每个员工的冲突关系
func RenderConflicts(w io.Writer, world *World) error {
	bw := bufio.NewWriter(w)
	for _, p := range world.persons {
		if p.Empty {
			continue
		}
		fmt.Fprintf(bw, "%s 与以下员工冲突: ", p.Name)
		for _, other := range p.conflicts {
			fmt.Fprintf(bw, "%s. ", other.Name)
		}
		fmt.Fprintln(bw)
	}
	return bw.Flush()
}
