// Package ocg defines the bit-flag vocabulary shared by every layer of
// the duel engine: card types, attributes, races, positions and
// locations. The numeric values are part of the wire protocol and must
// not be changed.
package ocg

// CardType flags.
type CardType uint32

const (
	TypeMonster     CardType = 0x1
	TypeSpell       CardType = 0x2
	TypeTrap        CardType = 0x4
	TypeNormal      CardType = 0x10
	TypeEffect      CardType = 0x20
	TypeFusion      CardType = 0x40
	TypeRitual      CardType = 0x80
	TypeTrapMonster CardType = 0x100
	TypeSpirit      CardType = 0x200
	TypeUnion       CardType = 0x400
	TypeDual        CardType = 0x800
	TypeTuner       CardType = 0x1000
	TypeSynchro     CardType = 0x2000
	TypeToken       CardType = 0x4000
	TypeQuickPlay   CardType = 0x10000
	TypeContinuous  CardType = 0x20000
	TypeEquip       CardType = 0x40000
	TypeField       CardType = 0x80000
	TypeCounter     CardType = 0x100000
	TypeFlip        CardType = 0x200000
	TypeToon        CardType = 0x400000
	TypeXyz         CardType = 0x800000
	TypePendulum    CardType = 0x1000000
	TypeSpSummon    CardType = 0x2000000
	TypeLink        CardType = 0x4000000
)

// Has reports whether all flags in mask are set.
func (t CardType) Has(mask CardType) bool { return t&mask == mask }

// Attribute flags.
type Attribute uint32

const (
	AttributeEarth  Attribute = 0x1
	AttributeWater  Attribute = 0x2
	AttributeFire   Attribute = 0x4
	AttributeWind   Attribute = 0x8
	AttributeLight  Attribute = 0x10
	AttributeDark   Attribute = 0x20
	AttributeDivine Attribute = 0x40
)

// Race flags.
type Race uint32

const (
	RaceWarrior      Race = 0x1
	RaceSpellcaster  Race = 0x2
	RaceFairy        Race = 0x4
	RaceFiend        Race = 0x8
	RaceZombie       Race = 0x10
	RaceMachine      Race = 0x20
	RaceAqua         Race = 0x40
	RacePyro         Race = 0x80
	RaceRock         Race = 0x100
	RaceWingedBeast  Race = 0x200
	RacePlant        Race = 0x400
	RaceInsect       Race = 0x800
	RaceThunder      Race = 0x1000
	RaceDragon       Race = 0x2000
	RaceBeast        Race = 0x4000
	RaceBeastWarrior Race = 0x8000
	RaceDinosaur     Race = 0x10000
	RaceFish         Race = 0x20000
	RaceSeaSerpent   Race = 0x40000
	RaceReptile      Race = 0x80000
	RacePsychic      Race = 0x100000
	RaceDivine       Race = 0x200000
	RaceCreatorGod   Race = 0x400000
	RaceWyrm         Race = 0x800000
	RaceCyberse      Race = 0x1000000
	RaceIllusion     Race = 0x2000000
)

// Position flags. A monster on the field always carries exactly one of
// the four concrete positions; cards outside monster and spell/trap
// zones carry PositionNone.
type Position uint32

const (
	PositionNone           Position = 0
	PositionFaceUpAttack   Position = 0x1
	PositionFaceDownAttack Position = 0x2
	PositionFaceUpDefense  Position = 0x4
	PositionFaceDownDefense Position = 0x8

	PositionFaceUp   Position = PositionFaceUpAttack | PositionFaceUpDefense
	PositionFaceDown Position = PositionFaceDownAttack | PositionFaceDownDefense
	PositionAttack   Position = PositionFaceUpAttack | PositionFaceDownAttack
	PositionDefense  Position = PositionFaceUpDefense | PositionFaceDownDefense
)

// FaceUp reports whether the position is one of the face-up positions.
func (p Position) FaceUp() bool { return p&PositionFaceUp != 0 }

// Location flags. Exactly one concrete location bit describes where a
// card currently sits; combinations (LocationOnField) are query masks.
type Location uint32

const (
	LocationNone    Location = 0
	LocationDeck    Location = 0x1
	LocationHand    Location = 0x2
	LocationMZone   Location = 0x4
	LocationSZone   Location = 0x8
	LocationGrave   Location = 0x10
	LocationRemoved Location = 0x20
	LocationExtra   Location = 0x40
	LocationOverlay Location = 0x80
	LocationFZone   Location = 0x100

	LocationOnField Location = LocationMZone | LocationSZone | LocationFZone
)

var locationNames = map[Location]string{
	LocationNone:    "NONE",
	LocationDeck:    "DECK",
	LocationHand:    "HAND",
	LocationMZone:   "MZONE",
	LocationSZone:   "SZONE",
	LocationGrave:   "GRAVE",
	LocationRemoved: "REMOVED",
	LocationExtra:   "EXTRA",
	LocationOverlay: "OVERLAY",
	LocationFZone:   "FZONE",
}

func (l Location) String() string {
	if name, ok := locationNames[l]; ok {
		return name
	}
	return "LOCATION_UNKNOWN"
}

// Slotted reports whether the location is a fixed-capacity slotted zone
// rather than an ordered stack.
func (l Location) Slotted() bool {
	return l == LocationMZone || l == LocationSZone || l == LocationFZone
}

// Positioned reports whether cards in this location carry a battle
// position.
func (l Location) Positioned() bool {
	return l == LocationMZone || l == LocationSZone
}
