package portal

// Canned overlay shapes. These are the only CreateOptions most handlers need.

func Modal() CreateOptions {
	return CreateOptions{
		Priority: PriorityHigh,
		Group:    "modal",
		Role:     "dialog",
	}
}

func Drawer() CreateOptions {
	return CreateOptions{
		Priority: PriorityNormal,
		Group:    "drawer",
		Role:     "complementary",
	}
}

// Sidebar portals are pinned: they persist across idle eviction.
func Sidebar() CreateOptions {
	return CreateOptions{
		Priority: PriorityLow,
		Group:    "sidebar",
		Role:     "navigation",
		Pinned:   true,
	}
}

// Toasts sit above everything else.
func Toast() CreateOptions {
	return CreateOptions{
		Priority: PriorityCritical,
		Group:    "toast",
		Role:     "status",
	}
}

func Popover() CreateOptions {
	return CreateOptions{
		Priority: PriorityNormal,
		Group:    "popover",
		Role:     "tooltip",
	}
}
