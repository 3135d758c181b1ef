package httpapi

import "netval/pkg/model"

// parsedToInterface converts one parser-produced ParsedInterface into the
// store's model.Interface shape, used by handleUploadConfig before calling
// ReplaceInterfaces. The parser and the store each keep a slightly
// different view of an interface.
func parsedToInterface(deviceID string, p model.ParsedInterface) *model.Interface {
	return &model.Interface{
		DeviceID:         deviceID,
		Name:             p.Name,
		Description:      p.Description,
		Mode:             p.Mode,
		State:            p.State,
		Duplex:           p.Duplex,
		VLANAccess:       p.VLANAccess,
		VLANTrunkAllowed: p.VLANTrunkAllowed,
		NativeVLAN:       p.NativeVLAN,
		IPAddress:        p.IPAddress,
		IPMask:           p.IPMask,
		DHCPHelpers:      p.DHCPHelpers,
	}
}

// interfaceToParsed converts a stored model.Interface back into the
// renderer's input shape, used by handleGenerateCLI.
func interfaceToParsed(i *model.Interface) model.ParsedInterface {
	return model.ParsedInterface{
		Name:             i.Name,
		Description:      i.Description,
		Mode:             i.Mode,
		State:            i.State,
		Duplex:           i.Duplex,
		VLANAccess:       i.VLANAccess,
		VLANTrunkAllowed: i.VLANTrunkAllowed,
		NativeVLAN:       i.NativeVLAN,
		IPAddress:        i.IPAddress,
		IPMask:           i.IPMask,
		DHCPHelpers:      i.DHCPHelpers,
	}
}

// deviceSubModel assembles a DeviceSubModel for a single device from its
// currently stored interfaces, VLANs, and static routes, for re-rendering
// via pkg/render (handleGenerateCLI). ACLs are never persisted so they are always
// empty here.
func deviceSubModel(hostname string, ifaces []*model.Interface, vlans []model.DeviceVlan, routes []model.StaticRoute) *model.DeviceSubModel {
	sub := &model.DeviceSubModel{
		Hostname:     hostname,
		VLANs:        vlans,
		StaticRoutes: routes,
	}
	for _, i := range ifaces {
		sub.Interfaces = append(sub.Interfaces, interfaceToParsed(i))
	}
	return sub
}
