package loader

import "fmt"

// Stage is one step of the build pipeline. Stages run in declaration order.
type Stage int

const (
	StageParseContainer Stage = iota
	StageParseJSON
	StageParseAssetMetadata
	StageParseBufferViews
	StageParseAccessors
	StageParseImages
	StageParseSamplers
	StageParseTextures
	StageParseMaterials
	StageParseMeshes
	StageSpawnNodes
	StageSetupNodes
	StageSetupScenes
	StageSelectScene
	StageDone
)

var stageNames = [...]string{
	StageParseContainer:     "ParseContainer",
	StageParseJSON:          "ParseJson",
	StageParseAssetMetadata: "ParseAssetMetadata",
	StageParseBufferViews:   "ParseBufferViews",
	StageParseAccessors:     "ParseAccessors",
	StageParseImages:        "ParseImages",
	StageParseSamplers:      "ParseSamplers",
	StageParseTextures:      "ParseTextures",
	StageParseMaterials:     "ParseMaterials",
	StageParseMeshes:        "ParseMeshes",
	StageSpawnNodes:         "SpawnNodes",
	StageSetupNodes:         "SetupNodes",
	StageSetupScenes:        "SetupScenes",
	StageSelectScene:        "SelectScene",
	StageDone:               "Done",
}

// String returns the stage name.
func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return fmt.Sprintf("Stage(%d)", int(s))
	}
	return stageNames[s]
}

// sectionComplete is returned by a stage that has processed every element.
const sectionComplete = -1

// stageFunc processes elements starting at cursor and returns the cursor to
// resume from, or sectionComplete.
type stageFunc func(cursor int) (int, error)

// BuildState is the resumable position of the scheduler.
type BuildState struct {
	Stage  Stage
	Cursor int
	Done   bool
	Err    bool
}

// Status is the coarse state reported to callers.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusLoaded
	StatusFailed
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusLoaded:
		return "loaded"
	case StatusFailed:
		return "failed"
	default:
		return "idle"
	}
}
