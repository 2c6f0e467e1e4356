package orgmode

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/harrisonrobin/dayline/pkg/model"
	"github.com/harrisonrobin/dayline/pkg/timeconv"
)

// DefaultDuration is the length given to entries scheduled without an end time.
const DefaultDuration = 30

var (
	headingRegex   = regexp.MustCompile(`^\*+\s+(TODO|DONE)\s+(?:\[#([A-Z])\]\s*)?(.*?)(?:\s+:([\w@:]+):)?\s*$`)
	scheduledRegex = regexp.MustCompile(`SCHEDULED:\s+<(\d{4}-\d{2}-\d{2})(?:\s+[A-Za-z]+)?\s+(\d{1,2}:\d{2})(?:-(\d{1,2}:\d{2}))?(?:\s+\+(\d+)([dw]))?>`)
	idRegex        = regexp.MustCompile(`^:ID:\s+(\S+)`)
)

type entry struct {
	done    bool
	title   string
	tags    []string
	id      string
	date    string
	start   string
	end     string
	repeat  int
	unit    string
	matched bool
}

// parseFile parses an Org-mode file and returns its scheduled items.
func parseFile(filePath string) ([]model.ScheduledItem, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return Parse(file, filePath)
}

// ParseFiles parses multiple Org-mode files.
func ParseFiles(filePaths []string) ([]model.ScheduledItem, error) {
	var all []model.ScheduledItem
	for _, filePath := range filePaths {
		items, err := parseFile(filePath)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filePath, err)
		}
		all = append(all, items...)
	}
	return all, nil
}

// Parse reads TODO and DONE headings with a timed SCHEDULED stamp. Daily
// and weekly repeaters become habits, everything else becomes a task.
// Headings without an :ID: property get a stable id derived from source
// and title.
func Parse(r io.Reader, source string) ([]model.ScheduledItem, error) {
	scanner := bufio.NewScanner(r)
	var items []model.ScheduledItem
	var current *entry

	flush := func() {
		if current == nil || !current.matched {
			return
		}
		item, err := current.item(source)
		if err != nil {
			log.Printf("Warning: skipping %q in %s: %v", current.title, source, err)
			return
		}
		items = append(items, item)
	}

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if strings.HasPrefix(line, "*") {
			flush()
			current = nil
			matches := headingRegex.FindStringSubmatch(line)
			if matches == nil {
				continue
			}
			current = &entry{done: matches[1] == "DONE", title: strings.TrimSpace(matches[3])}
			if matches[4] != "" {
				current.tags = strings.Split(matches[4], ":")
			}
			continue
		}
		if current == nil {
			continue
		}
		if matches := scheduledRegex.FindStringSubmatch(line); matches != nil {
			current.matched = true
			current.date = matches[1]
			current.start = matches[2]
			current.end = matches[3]
			if matches[4] != "" {
				current.repeat, _ = strconv.Atoi(matches[4])
				current.unit = matches[5]
			}
		} else if matches := idRegex.FindStringSubmatch(line); matches != nil {
			current.id = matches[1]
		}
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (e *entry) item(source string) (model.ScheduledItem, error) {
	if e.title == "" {
		return model.ScheduledItem{}, fmt.Errorf("empty heading")
	}
	day, err := model.ParseDate(e.date)
	if err != nil {
		return model.ScheduledItem{}, err
	}
	start := timeconv.TimeToMinutes(e.start)
	end := start + DefaultDuration
	if e.end != "" {
		end = timeconv.TimeToMinutes(e.end)
	}
	if end <= start {
		return model.ScheduledItem{}, fmt.Errorf("end %s is not after start %s", e.end, e.start)
	}
	if end > timeconv.MinutesPerDay {
		end = timeconv.MinutesPerDay
	}

	id := e.id
	if id == "" {
		id = uuid.NewSHA1(uuid.NameSpaceURL, []byte(source+"#"+e.title)).String()
	}
	var project string
	if len(e.tags) > 0 {
		project = e.tags[0]
	}

	item := model.ScheduledItem{
		ID:      id,
		Title:   e.title,
		Project: project,
		Time:    timeconv.Range{Start: start, End: end}.String(),
	}

	switch {
	case e.repeat == 1 && e.unit == "d":
		item.Kind = model.KindHabit
		item.Habit = &model.HabitSchedule{StartDate: e.date}
	case e.repeat == 1 && e.unit == "w":
		item.Kind = model.KindHabit
		item.Habit = &model.HabitSchedule{StartDate: e.date, SelectedDays: []time.Weekday{day.Weekday()}}
	default:
		if e.repeat > 0 {
			log.Printf("Warning: repeater +%d%s on %q imported as a single task", e.repeat, e.unit, e.title)
		}
		item.Kind = model.KindTask
		item.Task = &model.TaskSchedule{DueDate: e.date, Completed: e.done}
	}
	return item, nil
}

// FilterItems keeps the items whose project matches filter.
func FilterItems(items []model.ScheduledItem, filter string) []model.ScheduledItem {
	var filtered []model.ScheduledItem
	for _, item := range items {
		if item.Project == filter {
			filtered = append(filtered, item)
		}
	}
	return filtered
}
