// Package device models the hub's device inventory and the device groups
// that scope what each user may see and control.
//
// # Architecture
//
//	┌──────────────────────────────────────────────────────────────┐
//	│                        Device catalog                        │
//	│                                                              │
//	│  ┌──────────────────┐         ┌───────────────────────────┐  │
//	│  │    Inventory     │ ──────▶ │  Group (one per config    │  │
//	│  │ (inventory.go)   │         │  device group, group.go)  │  │
//	│  │                  │         │                           │  │
//	│  │ • hub fetch      │         │ • allow / deny filtering  │  │
//	│  │ • descriptions   │         │ • supported commands      │  │
//	│  │ • lazy cache     │         │ • label index, regex      │  │
//	│  └──────────────────┘         └───────────────────────────┘  │
//	└──────────────────────────────────────────────────────────────┘
//
// Both layers cache lazily and are cleared explicitly: an administrative
// refresh invalidates the inventory and every group, and the next access
// rebuilds from the hub.
//
// # Key Types
//
//   - Record: raw inventory entry (id, label, type, native commands)
//   - Device: inventory entry plus description and supported commands
//   - CommandMap: native command to exposed command (setLevel is "dim")
//   - Group: filtered, label-indexed view of the inventory
//   - Set: devices de-duplicated by id
//
// # Usage
//
//	inv := device.NewInventory(hub.ListInventory, cfg.Hubitat.Descriptions())
//	kitchen := device.NewGroup("kitchen", []int{5, 7}, nil, inv, fold.New(true))
//
//	lamp, ok, err := kitchen.Device(ctx, "Kitchen Lamp")
//	lights, err := kitchen.RegexSearch(ctx, "kitchen .*")
//
// # Thread Safety
//
// Inventory and Group are safe for concurrent use. A rebuild replaces the
// cached view in one step; readers never observe a partial view.
package device
