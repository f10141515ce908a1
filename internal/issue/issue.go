// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"cmp"
	"maps"
	"slices"

	"github.com/charmbracelet/glamour"
)

// Id identifies a catalog entry.
type Id int

const (
	ConfigLoadFailedId Id = iota + 1
	CombineConfigInvalidId
	ResourceRootNotFoundId
	VersionRequiredId
	DuplicateAddressableNameId
	ManifestFetchFailedId
	DownloadFailedId
	LocalStorageFailedId
	MajorUpgradeRequiredId
	ReinstallRequiredId
	UpdateInProgressId
	AddressableNotFoundId
)

type (
	// MarkdownMsg is the Markdown body of a guide.
	MarkdownMsg string

	// HttpLink is a reference URL shown under a guide.
	HttpLink string

	// Issue is one remediation guide.
	Issue struct {
		id       Id
		mdMsg    MarkdownMsg
		docLinks []HttpLink
		extLinks []HttpLink
	}
)

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

// Render formats the guide for the terminal using the given glamour style
// ("dark", "light", "notty", or a style file path).
func (i *Issue) Render(stylePath string) (string, error) {
	md := string(i.mdMsg)
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		md += "\n\n## See also\n"
		for _, link := range i.docLinks {
			md += "- <" + string(link) + ">\n"
		}
		for _, link := range i.extLinks {
			md += "- <" + string(link) + ">\n"
		}
	}
	return render(md, stylePath)
}

var (
	render = glamour.Render

	configLoadFailedIssue = &Issue{
		id: ConfigLoadFailedId,
		mdMsg: `
# Configuration could not be loaded

assetsync reads its configuration from, in order:
1. the file passed with ` + "`--config`" + `
2. ` + "`<user config dir>/assetsync/config.cue`" + `
3. ` + "`./assetsync.cue`" + `

## Things you can try
- Check the file for CUE syntax errors
- Compare your keys against the output of:
~~~
$ assetsync config show
~~~
- Unset ` + "`ASSETSYNC_*`" + ` environment variables that may override file values`,
	}

	combineConfigInvalidIssue = &Issue{
		id: CombineConfigInvalidId,
		mdMsg: `
# Invalid combine configuration

` + "`BundleCombineConfig.json`" + ` lists directories, relative to the resource
root, whose whole subtree is packaged as one artifact.

~~~json
{ "combieDirs": ["UI/Atlas", "Maps"] }
~~~

## Things you can try
- Remove trailing ` + "`/`" + ` characters from entries
- Use paths relative to the resource root, without ` + "`..`" + ``,
	}

	resourceRootNotFoundIssue = &Issue{
		id: ResourceRootNotFoundId,
		mdMsg: `
# Resource root not found

The build scans a single resource root directory for assets.

## Things you can try
- Pass ` + "`--resources <dir>`" + ` or set ` + "`build.resource_root`" + ` in the config file
- Check that the directory exists and is readable`,
	}

	versionRequiredIssue = &Issue{
		id: VersionRequiredId,
		mdMsg: `
# Release version required

Every build is stamped with a ` + "`major.minor.patch`" + ` version, and ` + "`0.0.0`" + ` is reserved.

## Things you can try
~~~
$ assetsync build 1.4.2
~~~
- Bump the **major** component only when a new client package is required`,
	}

	duplicateAddressableNameIssue = &Issue{
		id: DuplicateAddressableNameId,
		mdMsg: `
# Duplicate addressable name

Two source files map to the same addressable name (their relative path
without extension), for example ` + "`UI/Icon.png`" + ` and ` + "`UI/Icon.jpg`" + `.
No manifest was written.

## Things you can try
- Rename one of the files
- Move one of them into a different directory`,
	}

	manifestFetchFailedIssue = &Issue{
		id: ManifestFetchFailedId,
		mdMsg: `
# Could not get version information

The remote manifest could not be downloaded or was not a valid manifest.
Installed content was left untouched.

## Things you can try
- Check the network connection and the configured ` + "`origin`" + `
- Check that the ` + "`channel`" + ` has a published ` + "`version.json`" + `
- Retry the update`,
	}

	downloadFailedIssue = &Issue{
		id: DownloadFailedId,
		mdMsg: `
# Downloading content failed

At least one artifact could not be downloaded. The previously installed
release is still in place, and artifacts that finished downloading are kept
for the next try.

## Things you can try
- Check the network connection
- Retry the update; completed artifacts are not downloaded again`,
	}

	localStorageFailedIssue = &Issue{
		id: LocalStorageFailedId,
		mdMsg: `
# Local content could not be written

The writable root could not be created, read, or written.

## Things you can try
- Check free disk space
- Check permissions on the ` + "`writable_root`" + ` directory
- Retry the update`,
	}

	majorUpgradeRequiredIssue = &Issue{
		id: MajorUpgradeRequiredId,
		mdMsg: `
# A new client version is required

The latest content release needs a newer client package than the one
installed. Content updates cannot bridge a major version change.

## Things you can try
- Install the latest client package from your distribution channel`,
	}

	reinstallRequiredIssue = &Issue{
		id: ReinstallRequiredId,
		mdMsg: `
# Reinstall required

Installed content still failed verification after a full repair.

## Things you can try
- Reinstall the client package
- Check the storage device for errors`,
	}

	updateInProgressIssue = &Issue{
		id: UpdateInProgressId,
		mdMsg: `
# An update is already running

Only one update attempt may run at a time.

## Things you can try
- Wait for the running attempt to finish, then try again`,
	}

	addressableNotFoundIssue = &Issue{
		id: AddressableNotFoundId,
		mdMsg: `
# Unknown addressable name

The name is not in the installed index. Addressable names are relative
resource paths without their extension, e.g. ` + "`UI/Atlas/Icons`" + `.

## Things you can try
- Check the spelling and letter case
- Run ` + "`assetsync update`" + ` if the asset was added in a newer release`,
	}

	issues = map[Id]*Issue{
		configLoadFailedIssue.Id():         configLoadFailedIssue,
		combineConfigInvalidIssue.Id():     combineConfigInvalidIssue,
		resourceRootNotFoundIssue.Id():     resourceRootNotFoundIssue,
		versionRequiredIssue.Id():          versionRequiredIssue,
		duplicateAddressableNameIssue.Id(): duplicateAddressableNameIssue,
		manifestFetchFailedIssue.Id():      manifestFetchFailedIssue,
		downloadFailedIssue.Id():           downloadFailedIssue,
		localStorageFailedIssue.Id():       localStorageFailedIssue,
		majorUpgradeRequiredIssue.Id():     majorUpgradeRequiredIssue,
		reinstallRequiredIssue.Id():        reinstallRequiredIssue,
		updateInProgressIssue.Id():         updateInProgressIssue,
		addressableNotFoundIssue.Id():      addressableNotFoundIssue,
	}
)

// Values returns every catalog entry ordered by Id.
func Values() []*Issue {
	return slices.SortedFunc(maps.Values(issues), func(a, b *Issue) int {
		return cmp.Compare(a.id, b.id)
	})
}

// Get returns the entry for id, or nil.
func Get(id Id) *Issue {
	return issues[id]
}
