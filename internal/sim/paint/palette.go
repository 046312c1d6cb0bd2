package paint

// Block is an index into the palette. The palette is fixed at init and never
// mutated afterwards, so it is safe to share between concurrent painters.
type Block uint16

const (
	Air Block = iota
	Stone
	Cobblestone
	MossyCobblestone
	Planks
	OakLog
	Fence
	DarkFence
	Rail
	Web
	Torch
	Chest
	Spawner
	NetherBrick
	NetherBrickFence
	NetherBrickStairs
	SoulSand
	NetherWart
	Lava
	Prismarine
	PrismarineBricks
	DarkPrismarine
	SeaLantern
	Water
	Sponge
	GoldBlock
	DarkOakLog
	DarkOakPlanks
	BirchPlanks
	Cobweb
	Glass
	Carpet
	Bookshelf
	Door
	Stairs
	Ladder
	Gravel

	blockCount
)

var names = [blockCount]string{
	Air:               "air",
	Stone:             "stone",
	Cobblestone:       "cobblestone",
	MossyCobblestone:  "mossy_cobblestone",
	Planks:            "oak_planks",
	OakLog:            "oak_log",
	Fence:             "oak_fence",
	DarkFence:         "dark_oak_fence",
	Rail:              "rail",
	Web:               "web",
	Torch:             "torch",
	Chest:             "chest",
	Spawner:           "mob_spawner",
	NetherBrick:       "nether_brick",
	NetherBrickFence:  "nether_brick_fence",
	NetherBrickStairs: "nether_brick_stairs",
	SoulSand:          "soul_sand",
	NetherWart:        "nether_wart",
	Lava:              "lava",
	Prismarine:        "prismarine",
	PrismarineBricks:  "prismarine_bricks",
	DarkPrismarine:    "dark_prismarine",
	SeaLantern:        "sea_lantern",
	Water:             "water",
	Sponge:            "wet_sponge",
	GoldBlock:         "gold_block",
	DarkOakLog:        "dark_oak_log",
	DarkOakPlanks:     "dark_oak_planks",
	BirchPlanks:       "birch_planks",
	Cobweb:            "cobweb",
	Glass:             "glass",
	Carpet:            "carpet",
	Bookshelf:         "bookshelf",
	Door:              "door",
	Stairs:            "stairs",
	Ladder:            "ladder",
	Gravel:            "gravel",
}

var byName map[string]Block

func init() {
	byName = make(map[string]Block, len(names))
	for i, n := range names {
		byName[n] = Block(i)
	}
}

func (b Block) String() string {
	if int(b) < len(names) {
		return names[b]
	}
	return "unknown"
}

// Lookup resolves a palette name.
func Lookup(name string) (Block, bool) {
	b, ok := byName[name]
	return b, ok
}

// Solid reports whether b stops a downward column fill.
func (b Block) Solid() bool {
	switch b {
	case Air, Water, Lava, Web, Cobweb, Torch, Rail:
		return false
	}
	return true
}
