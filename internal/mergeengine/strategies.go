package mergeengine

import (
	"fmt"
	"strings"

	"github.com/brioctl/brio/internal/domain"
)

// BranchChanges is one branch's proposed file content, keyed by repository
// path. A nil entry means the branch deletes that path.
type BranchChanges struct {
	Branch domain.BranchId
	Files  map[string][]string
}

// MergeResult is the outcome of applying a MergeStrategy across one or more
// BranchChanges against a shared base.
type MergeResult struct {
	// Files holds the merged content per path; a nil slice means the path
	// is deleted in the result.
	Files     map[string][]string
	Conflicts []domain.Conflict
}

// MergeStrategy folds one or more branches' file changes back onto base.
type MergeStrategy interface {
	Name() domain.MergeStrategyName
	Merge(base map[string][]string, branches []BranchChanges) (MergeResult, error)
}

// ErrWrongBranchCount reports a strategy invoked with a branch count it
// cannot support: Ours/Theirs are pairwise against the parent; ThreeWay
// reconciles exactly two divergent branches over one base.
type ErrWrongBranchCount struct {
	Strategy domain.MergeStrategyName
	Got      int
	Want     int
}

func (e *ErrWrongBranchCount) Error() string {
	return fmt.Sprintf("%s strategy requires %d branch(es), got %d", e.Strategy, e.Want, e.Got)
}

// ValidateBranchCount checks a strategy's branch-count precondition before
// Merge is invoked.
func ValidateBranchCount(name domain.MergeStrategyName, count int) error {
	switch name {
	case domain.StrategyOurs, domain.StrategyTheirs:
		if count != 1 {
			return &ErrWrongBranchCount{Strategy: name, Got: count, Want: 1}
		}
	case domain.StrategyThreeWay:
		if count != 2 {
			return &ErrWrongBranchCount{Strategy: name, Got: count, Want: 2}
		}
	}
	return nil
}

// unionStrategy applies every branch's file-level changes, raising a
// Conflict for any path more than one branch touches incompatibly and
// leaving that path at its base content.
type unionStrategy struct{}

func (unionStrategy) Name() domain.MergeStrategyName { return domain.StrategyUnion }

func (unionStrategy) Merge(base map[string][]string, branches []BranchChanges) (MergeResult, error) {
	if err := ValidateBranchCount(domain.StrategyUnion, len(branches)); err != nil {
		return MergeResult{}, err
	}

	result := MergeResult{Files: map[string][]string{}}
	touchedBy := map[string][]int{} // path -> indices into branches that touch it

	for i, b := range branches {
		for path := range b.Files {
			touchedBy[path] = append(touchedBy[path], i)
		}
	}

	for path, idxs := range touchedBy {
		if len(idxs) == 1 {
			result.Files[path] = branches[idxs[0]].Files[path]
			continue
		}
		first := branches[idxs[0]].Files[path]
		conflicted := false
		for _, idx := range idxs[1:] {
			if !linesEqual(first, branches[idx].Files[path]) {
				conflicted = true
				break
			}
		}
		if !conflicted {
			result.Files[path] = first
			continue
		}
		ctype := domain.ConflictContent
		for _, idx := range idxs {
			if IsBinaryFile(joinBytes(branches[idx].Files[path])) {
				ctype = domain.ConflictBinary
				break
			}
		}
		result.Conflicts = append(result.Conflicts, domain.Conflict{
			Path:        path,
			Type:        ctype,
			LeftBranch:  branches[idxs[0]].Branch,
			RightBranch: branches[idxs[1]].Branch,
		})
		if baseContent, ok := base[path]; ok {
			result.Files[path] = baseContent
		}
	}

	for path, content := range base {
		if _, touched := touchedBy[path]; !touched {
			result.Files[path] = content
		}
	}

	return result, nil
}

// oursStrategy rejects the branch's changes outright, keeping base content
// for every path the branch touched.
type oursStrategy struct{}

func (oursStrategy) Name() domain.MergeStrategyName { return domain.StrategyOurs }

func (oursStrategy) Merge(base map[string][]string, branches []BranchChanges) (MergeResult, error) {
	if err := ValidateBranchCount(domain.StrategyOurs, len(branches)); err != nil {
		return MergeResult{}, err
	}
	result := MergeResult{Files: map[string][]string{}}
	for path, content := range base {
		result.Files[path] = content
	}
	return result, nil
}

// theirsStrategy accepts the branch's changes wholesale, never raising a
// conflict.
type theirsStrategy struct{}

func (theirsStrategy) Name() domain.MergeStrategyName { return domain.StrategyTheirs }

func (theirsStrategy) Merge(base map[string][]string, branches []BranchChanges) (MergeResult, error) {
	if err := ValidateBranchCount(domain.StrategyTheirs, len(branches)); err != nil {
		return MergeResult{}, err
	}
	result := MergeResult{Files: map[string][]string{}}
	for path, content := range base {
		result.Files[path] = content
	}
	for path, content := range branches[0].Files {
		result.Files[path] = content
	}
	return result, nil
}

// threeWayStrategy reconciles two branches' independent edits to base at
// line granularity via ThreeWayMergeLines, per path.
type threeWayStrategy struct{}

func (threeWayStrategy) Name() domain.MergeStrategyName { return domain.StrategyThreeWay }

func (threeWayStrategy) Merge(base map[string][]string, branches []BranchChanges) (MergeResult, error) {
	if err := ValidateBranchCount(domain.StrategyThreeWay, len(branches)); err != nil {
		return MergeResult{}, err
	}
	left, right := branches[0], branches[1]
	result := MergeResult{Files: map[string][]string{}}

	paths := map[string]bool{}
	for p := range base {
		paths[p] = true
	}
	for p := range left.Files {
		paths[p] = true
	}
	for p := range right.Files {
		paths[p] = true
	}

	for path := range paths {
		baseLines := base[path]
		leftLines, leftTouched := left.Files[path]
		rightLines, rightTouched := right.Files[path]

		if !leftTouched && !rightTouched {
			result.Files[path] = baseLines
			continue
		}
		if !leftTouched {
			result.Files[path] = rightLines
			continue
		}
		if !rightTouched {
			result.Files[path] = leftLines
			continue
		}
		if IsBinaryFile(joinBytes(leftLines)) || IsBinaryFile(joinBytes(rightLines)) {
			if linesEqual(leftLines, rightLines) {
				result.Files[path] = leftLines
				continue
			}
			result.Conflicts = append(result.Conflicts, domain.Conflict{
				Path: path, Type: domain.ConflictBinary,
				LeftBranch: left.Branch, RightBranch: right.Branch,
			})
			result.Files[path] = baseLines
			continue
		}

		outcome := ThreeWayMergeLines(baseLines, leftLines, rightLines)
		if outcome.Clean {
			result.Files[path] = outcome.Lines
			continue
		}
		for _, c := range outcome.Conflicts {
			result.Conflicts = append(result.Conflicts, domain.Conflict{
				Path:        path,
				Type:        domain.ConflictContent,
				BaseRegion:  strings.Join(baseLines[c.BaseStart:c.BaseEnd], "\n"),
				LeftRegion:  strings.Join(c.LeftLines, "\n"),
				RightRegion: strings.Join(c.RightLines, "\n"),
				LeftBranch:  left.Branch,
				RightBranch: right.Branch,
			})
		}
		result.Files[path] = baseLines
	}

	return result, nil
}

func joinBytes(lines []string) []byte {
	var out []byte
	for i, l := range lines {
		if i > 0 {
			out = append(out, '\n')
		}
		out = append(out, l...)
	}
	return out
}

// Registry maps a domain.MergeStrategyName to its implementation.
type Registry struct {
	strategies map[domain.MergeStrategyName]MergeStrategy
}

// NewDefaultRegistry returns a Registry preloaded with the four named
// strategies: Union, Ours, Theirs, and ThreeWay.
func NewDefaultRegistry() *Registry {
	r := &Registry{strategies: map[domain.MergeStrategyName]MergeStrategy{}}
	for _, s := range []MergeStrategy{unionStrategy{}, oursStrategy{}, theirsStrategy{}, threeWayStrategy{}} {
		r.strategies[s.Name()] = s
	}
	return r
}

// Get looks up a strategy by name.
func (r *Registry) Get(name domain.MergeStrategyName) (MergeStrategy, error) {
	s, ok := r.strategies[name]
	if !ok {
		return nil, fmt.Errorf("unknown merge strategy %q", name)
	}
	return s, nil
}
