package component

type PlayerTag struct{}

var PlayerTagComponent = NewComponent[PlayerTag]()

type CrateTag struct{}

var CrateTagComponent = NewComponent[CrateTag]()

// GhostPlatform marks a platform sensors look through. Whether bodies pass
// through it is decided by its solver groups.
type GhostPlatform struct{}

var GhostPlatformComponent = NewComponent[GhostPlatform]()
