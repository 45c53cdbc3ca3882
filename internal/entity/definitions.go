package entity

import (
	"loglens/pkg/contracts/domain"
)

// Defaults returns the built-in definition set. Patterns are written for
// RE2: the lookarounds some upstream threat-hunting collections use are
// replaced with equivalent anchored forms, since matching is always
// against a whole cell value.
func Defaults() []domain.EntityDefinition {
	return []domain.EntityDefinition{
		{
			Name:     "DNS",
			Regex:    `^(?:[a-z0-9](?:[a-z0-9-]{0,61}[a-z0-9])?\.)+[a-z]{2,63}$`,
			Priority: domain.PriorityMedium,
			Entity:   domain.EntityHost,
		},
		{
			Name:     "IPV4",
			Regex:    `^(?P<ipaddress>(?:[0-9]{1,3}\.){3}[0-9]{1,3})$`,
			Priority: domain.PriorityStrong,
			Entity:   domain.EntityIPAddress,
		},
		{
			Name:     "IPV6",
			Regex:    `^(?:[A-F0-9]{0,4}:){2,7}[A-F0-9]{0,4}$`,
			Priority: domain.PriorityStrong,
			Entity:   domain.EntityIPAddress,
		},
		{
			Name: "URL",
			Regex: `^(?P<protocol>(?:https?|ftp|telnet|ldap|file)://)` +
				`(?P<userinfo>(?:[a-z0-9-._~!$&'()*+,;=:]|%[0-9A-F]{2})*@)?` +
				`(?P<host>(?:[a-z0-9-._~!$&'()*+,;=]|%[0-9A-F]{2})*)` +
				`(?::(?P<port>\d*))?` +
				`(?:/(?P<path>(?:[^?#"<>\s]|%[0-9A-F]{2})*/?))?` +
				`(?:\?(?P<query>(?:[a-z0-9-._~!$&'()*+,;=:/?@]|%[0-9A-F]{2})*))?` +
				`(?:#(?P<fragment>(?:[a-z0-9-._~!$&'()*+,;=:/?@]|%[0-9A-F]{2})*))?$`,
			Priority: domain.PriorityStrong,
			Entity:   domain.EntityURL,
		},
		{
			Name:     "MD5",
			Regex:    `^(?P<hash>[A-Fa-f0-9]{32})$`,
			Priority: domain.PriorityMedium,
			Entity:   domain.EntityHash,
		},
		{
			Name:     "SHA1",
			Regex:    `^(?P<hash>[A-Fa-f0-9]{40})$`,
			Priority: domain.PriorityMedium,
			Entity:   domain.EntityHash,
		},
		{
			Name:     "SHA256",
			Regex:    `^(?P<hash>[A-Fa-f0-9]{64})$`,
			Priority: domain.PriorityMedium,
			Entity:   domain.EntityHash,
		},
		{
			Name: "LXPATH",
			Regex: `^(?P<root>/+|\.+)?` +
				`(?P<folder>/(?:[^\\/:*?<>|\r\n]+/)*)` +
				`(?P<file>[^/\x00<>|\r\n ]+)$`,
			Priority: domain.PriorityWeak,
			Entity:   domain.EntityFile,
		},
		{
			Name: "WINPATH",
			Regex: `^(?P<root>[a-z]:|\\\\[a-z0-9_.$-]+|\.+)?` +
				`(?P<folder>\\(?:[^\\/:*?"'<>|\r\n]+\\)*)` +
				`(?P<file>[^\\/*?"<>|\r\n ]+)$`,
			Priority: domain.PriorityMedium,
			Entity:   domain.EntityFile,
		},
		{
			Name: "WINPROCESS",
			Regex: `^(?P<root>[a-z]:|\\\\[a-z0-9_.$-]+|\.+)?` +
				`(?P<folder>\\(?:[^\\/:*?"'<>|\r\n]+\\)*)?` +
				`(?P<file>[^\\/*?"<>|\r\n ]+\.exe)$`,
			Priority: domain.PriorityMedium,
			Entity:   domain.EntityProcess,
		},
		{
			Name:     "EMAIL",
			Regex:    `^[\w._%+-]+@(?:[\w-]+\.)+\w{2,}$`,
			Priority: domain.PriorityStrong,
			Entity:   domain.EntityAccount,
		},
		{
			Name:     "RESOURCEID",
			Regex:    `^(/[a-z]+/)[a-z0-9]{8}(-[a-z0-9]{4}){3}-[a-z0-9]{12}(/[a-z]+/).*`,
			Priority: domain.PriorityStrong,
			Entity:   domain.EntityAzureResource,
		},
		{
			Name:     "NTACCT",
			Regex:    `^[^/:*?"<>|]{2,15}\\[^/:*?"<>|]{2,15}$`,
			Priority: domain.PriorityStrong,
			Entity:   domain.EntityAccount,
		},
		{
			Name:     "SID",
			Regex:    `^S-\d+(-\d+)+$`,
			Priority: domain.PriorityMedium,
			Entity:   domain.EntityAccount,
		},
		{
			Name: "REGKEY",
			Regex: `^("|'|\s)?(?P<hive>HKLM|HKCU|HKCR|HKU|HKEY_(LOCAL_MACHINE|USERS|CURRENT_USER|CURRENT_CONFIG|CLASSES_ROOT))` +
				`(?P<key>(\\[^"'\\/]+)+\\?)("|'|\s)?`,
			Priority: domain.PriorityMedium,
			Entity:   domain.EntityRegistryKey,
		},
		{
			Name:       "GUID",
			Regex:      `^[a-z0-9]{8}(-[a-z0-9]{4}){3}-[a-z0-9]{12}$`,
			Priority:   domain.PriorityMedium,
			Entity:     domain.EntityNone,
			DataFormat: "uuid",
		},
	}
}
